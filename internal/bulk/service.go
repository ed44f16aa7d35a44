package bulk

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	pkgerrors "github.com/logitrack/logitrack-backend/pkg/errors"
)

// Columns is the expected CSV header, in order.
var Columns = []string{
	"shipment_type",
	"pickup_subtype",
	"customer_name",
	"customer_phone",
	"pickup_address",
	"delivery_address",
	"package_description",
	"number_of_items",
	"weight",
	"is_cod",
	"cod_amount",
}

// RowError points at one rejected CSV line. Row numbers are 1-based and
// include the header, matching what spreadsheet users see.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result summarizes a bulk upload. Rows fail independently; one bad line
// never blocks the rest of the file.
type Result struct {
	Success          bool              `json:"success"`
	CreatedCount     int               `json:"created_count"`
	ErrorCount       int               `json:"error_count"`
	CreatedShipments []models.Shipment `json:"created_shipments"`
	Errors           []RowError        `json:"errors"`
}

// Service imports shipments from CSV files.
type Service interface {
	Upload(ctx context.Context, r io.Reader) (*Result, error)
	Template() string
}

type service struct {
	shipments shipments.Service
	logger    zerolog.Logger
	maxRows   int
}

const defaultMaxRows = 1000

// NewService builds a bulk import service on top of the shipments service.
func NewService(shipmentSvc shipments.Service, logger zerolog.Logger) (Service, error) {
	if shipmentSvc == nil {
		return nil, fmt.Errorf("shipments service required")
	}
	return &service{
		shipments: shipmentSvc,
		logger:    logger.With().Str("component", "bulk").Logger(),
		maxRows:   defaultMaxRows,
	}, nil
}

func (s *service) Upload(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty or unreadable CSV file")
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &Result{
		CreatedShipments: []models.Shipment{},
		Errors:           []RowError{},
	}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Error: "malformed CSV line"})
			continue
		}
		if row-1 > s.maxRows {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("file exceeds the %d row limit", s.maxRows))
		}

		input, err := parseRow(record)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}

		shipment, err := s.shipments.Create(ctx, input)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Error: errorMessage(err)})
			continue
		}
		result.CreatedShipments = append(result.CreatedShipments, *shipment)
	}

	result.CreatedCount = len(result.CreatedShipments)
	result.ErrorCount = len(result.Errors)
	result.Success = result.ErrorCount == 0 && result.CreatedCount > 0

	s.logger.Info().
		Int("created", result.CreatedCount).
		Int("rejected", result.ErrorCount).
		Msg("bulk upload processed")
	return result, nil
}

// Template returns a CSV skeleton with the header and one example row.
func (s *service) Template() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(Columns)
	_ = w.Write([]string{
		"delivery", "", "Asha Verma", "9111000001",
		"Warehouse 4, Okhla", "14 Park Lane", "2x apparel", "2", "1.5", "true", "1499.00",
	})
	w.Flush()
	return b.String()
}

func validateHeader(header []string) error {
	if len(header) != len(Columns) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unexpected CSV header").
			WithDetails(map[string]any{"expected": Columns})
	}
	for i, col := range Columns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return pkgerrors.New(pkgerrors.CodeValidation, "unexpected CSV header").
				WithDetails(map[string]any{"expected": Columns, "got": header})
		}
	}
	return nil
}

func parseRow(record []string) (shipments.CreateInput, error) {
	var input shipments.CreateInput
	if len(record) != len(Columns) {
		return input, fmt.Errorf("expected %d columns, got %d", len(Columns), len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	shipmentType, err := enums.ParseShipmentType(record[0])
	if err != nil {
		return input, fmt.Errorf("shipment_type: %v", err)
	}
	input.ShipmentType = shipmentType

	if record[1] != "" {
		subtype, err := enums.ParsePickupSubtype(record[1])
		if err != nil {
			return input, fmt.Errorf("pickup_subtype: %v", err)
		}
		input.PickupSubtype = &subtype
	}

	input.CustomerName = record[2]
	input.CustomerPhone = record[3]
	input.PickupAddress = record[4]
	if record[5] != "" {
		addr := record[5]
		input.DeliveryAddress = &addr
	}
	input.PackageDescription = record[6]

	if record[7] != "" {
		n, err := strconv.Atoi(record[7])
		if err != nil {
			return input, fmt.Errorf("number_of_items: %q is not a number", record[7])
		}
		input.NumberOfItems = n
	}
	if record[8] != "" {
		w, err := strconv.ParseFloat(record[8], 64)
		if err != nil {
			return input, fmt.Errorf("weight: %q is not a number", record[8])
		}
		input.Weight = &w
	}

	if record[9] != "" {
		isCOD, err := strconv.ParseBool(record[9])
		if err != nil {
			return input, fmt.Errorf("is_cod: %q is not a boolean", record[9])
		}
		input.IsCOD = isCOD
	}
	if input.IsCOD {
		amount, err := decimal.NewFromString(record[10])
		if err != nil {
			return input, fmt.Errorf("cod_amount: %q is not a number", record[10])
		}
		input.CODAmount = amount
		input.PaymentMethod = enums.PaymentMethodCash
	} else {
		input.CODAmount = decimal.Zero
		input.PaymentMethod = enums.PaymentMethodPrepaid
	}

	return input, nil
}

func errorMessage(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr.Message()
	}
	return err.Error()
}
