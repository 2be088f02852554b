package infra

// pdf.go — generación del estado de cuenta de una liquidación con go-pdf/fpdf.
// Documento A5 con el desglose completo del cálculo: monto de venta, comisión,
// IVA retenido/trasladado, ISR, fee del método de pago y monto final.
//
// El archivo se guarda en storagePath/liquidacion_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/model"
)

// GenerateLiquidacionPDF genera el estado de cuenta en PDF de una liquidación.
// storagePath es el directorio destino (se crea si no existe).
// Devuelve la ruta absoluta del archivo generado.
func GenerateLiquidacionPDF(liq *model.Liquidacion, nombreInstructor, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("liquidacion_%s.pdf", liq.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Estado de cuenta", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Liquidación de ganancias de instructor", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, nombreInstructor, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, liq.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, "Ref: "+liq.ID.String(), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Desglose ─────────────────────────────────────────────────────────────
	col1 := contentW * 0.62
	col2 := contentW * 0.38

	row := func(label string, monto decimal.Decimal, moneda string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(col1, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, monto.StringFixed(2)+" "+moneda, "", 1, "R", false, 0, "")
	}

	row("Ventas del período (USD)", liq.MontoVentaUSD, "USD")
	row("Equivalente fiscal", liq.MontoFiscal, liq.MonedaFiscal)
	row("Comisión de plataforma", liq.ComisionMonto.Neg(), liq.MonedaFiscal)
	row("IVA", liq.IVAMonto, liq.MonedaFiscal)
	row("IVA retenido", liq.IVARetenido.Neg(), liq.MonedaFiscal)
	row("IVA trasladado", liq.IVATrasladado, liq.MonedaFiscal)
	row(fmt.Sprintf("ISR retenido (%s%%)", liq.ISRTasa.Mul(decimal.NewFromInt(100)).StringFixed(2)), liq.ISRMonto.Neg(), liq.MonedaFiscal)
	row("Fee del método de pago", liq.FeeMetodoPago.Neg(), liq.MonedaPago)

	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1, 7, "TOTAL A PAGAR:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, liq.MontoFinal.StringFixed(2)+" "+liq.MonedaPago, "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
