// File: internal/label/label.go
// Package label 產生 drop point 的標籤，供列印張貼於場館。
// 每張標籤是一頁 A6 橫式 PDF：標題、大字編號與指向回報頁的 QR code。
package label

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// qrEncode 為測試替換點。
var qrEncode = qrcode.Encode

// ReportURL 是印在標籤上的回報網址。
func ReportURL(baseURL string, number int) string {
	return fmt.Sprintf("%s/report/%d", strings.TrimRight(baseURL, "/"), number)
}

func addLabelPage(pdf *fpdf.Fpdf, baseURL string, number int) error {
	url := ReportURL(baseURL, number)
	png, err := qrEncode(url, qrcode.Medium, 512)
	if err != nil {
		return fmt.Errorf("addLabelPage: %w", err)
	}

	pdf.AddPage()

	name := fmt.Sprintf("qr-%d", number)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, 84, 18, 56, 56, false, opts, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(8, 12)
	pdf.CellFormat(72, 10, "BOTTLE DROP POINT", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 72)
	pdf.SetXY(8, 32)
	pdf.CellFormat(72, 36, fmt.Sprint(number), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(8, 86)
	pdf.CellFormat(132, 6, url, "", 0, "C", false, 0, "")

	return nil
}

// RenderPDF 產生一份 PDF，每個編號一頁標籤。
func RenderPDF(baseURL string, numbers []int) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A6", "")
	pdf.SetAutoPageBreak(false, 0)
	for _, n := range numbers {
		if err := addLabelPage(pdf, baseURL, n); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("RenderPDF: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderZip 產生一個 ZIP，內含每個編號各自的單頁 PDF。
func RenderZip(baseURL string, numbers []int) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range numbers {
		data, err := RenderPDF(baseURL, []int{n})
		if err != nil {
			return nil, err
		}
		w, err := zw.Create(fmt.Sprintf("label-%d.pdf", n))
		if err != nil {
			return nil, fmt.Errorf("RenderZip: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("RenderZip: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("RenderZip: %w", err)
	}
	return buf.Bytes(), nil
}
