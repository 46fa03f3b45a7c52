// Package seed carga ítems y lotes iniciales desde un CSV separado por ';'.
//
// Columnas: code;name;unit_price;quantity;date_of_purchase;date_of_expiry (fechas YYYY-MM-DD).
// La primera fila se omite si es encabezado. Las exportaciones de hojas de cálculo suelen venir
// en Windows-1252; Options.Latin1 las decodifica antes de parsear.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/retail-inventory/internal/application/inventory"
	"github.com/jhoicas/retail-inventory/internal/domain/entity"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

const dateLayout = "2006-01-02"

// Row fila del archivo ya validada.
type Row struct {
	Line           int
	Code           string
	Name           string
	UnitPrice      decimal.Decimal
	Quantity       int
	DateOfPurchase time.Time
	DateOfExpiry   time.Time
}

// Options formato del archivo.
type Options struct {
	Latin1 bool
}

// Parse lee todas las filas. Devuelve un error con el número de línea ante la primera fila inválida.
func Parse(r io.Reader, opts Options) ([]Row, error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 6
	cr.TrimLeadingSpace = true

	var rows []Row
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	row := Row{Code: inventory.NormalizeCode(rec[0]), Name: rec[1]}
	if row.Code == "" || row.Name == "" {
		return row, errors.New("code y name son obligatorios")
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(rec[2], ",", "."))
	if err != nil || price.IsNegative() {
		return row, fmt.Errorf("unit_price inválido %q", rec[2])
	}
	row.UnitPrice = price
	if row.Quantity, err = strconv.Atoi(rec[3]); err != nil || row.Quantity < 0 {
		return row, fmt.Errorf("quantity inválida %q", rec[3])
	}
	if rec[4] != "" {
		if row.DateOfPurchase, err = time.Parse(dateLayout, rec[4]); err != nil {
			return row, fmt.Errorf("date_of_purchase inválida %q", rec[4])
		}
	}
	if row.Quantity > 0 {
		if row.DateOfExpiry, err = time.Parse(dateLayout, rec[5]); err != nil {
			return row, fmt.Errorf("date_of_expiry inválida %q", rec[5])
		}
	}
	return row, nil
}

// ItemWriter alta o actualización de ítems en el catálogo.
type ItemWriter interface {
	Upsert(ctx context.Context, item *entity.Item) error
}

// Result resumen de una carga.
type Result struct {
	Items   int
	Batches int
}

// Apply registra los ítems y, para filas con cantidad, un lote por fila a través de ReceiveBatch.
func Apply(ctx context.Context, rows []Row, items ItemWriter, stock *inventory.StockUseCase, log *logger.Logger) (Result, error) {
	var res Result
	seen := make(map[string]int64, len(rows))
	for _, row := range rows {
		id, ok := seen[row.Code]
		if !ok {
			item := &entity.Item{Code: row.Code, Name: row.Name, UnitPrice: row.UnitPrice}
			if err := items.Upsert(ctx, item); err != nil {
				return res, fmt.Errorf("línea %d: ítem %s: %w", row.Line, row.Code, err)
			}
			id = item.ID
			seen[row.Code] = id
			res.Items++
		}
		if row.Quantity == 0 {
			continue
		}
		if _, err := stock.ReceiveBatch(ctx, inventory.ReceiveBatchInput{
			ItemID:         id,
			Quantity:       row.Quantity,
			DateOfPurchase: row.DateOfPurchase,
			DateOfExpiry:   row.DateOfExpiry,
		}); err != nil {
			return res, fmt.Errorf("línea %d: lote de %s: %w", row.Line, row.Code, err)
		}
		res.Batches++
	}
	log.Info().Int("items", res.Items).Int("batches", res.Batches).Msg("carga inicial aplicada")
	return res, nil
}
