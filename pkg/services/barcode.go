package services

import (
	"strings"

	"github.com/nutridive/nutridive/pkg/apperrors"
)

const (
	minBarcodeLength = 4
	maxBarcodeLength = 14
)

// NormalizeBarcode trims surrounding whitespace and checks that the barcode
// is 4 to 14 ASCII digits.
func NormalizeBarcode(barcode string) (string, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return "", apperrors.Validationf("barcode is required")
	}
	if len(barcode) < minBarcodeLength || len(barcode) > maxBarcodeLength {
		return "", apperrors.Validationf("invalid barcode %q: must be %d to %d digits", barcode, minBarcodeLength, maxBarcodeLength)
	}
	for i := 0; i < len(barcode); i++ {
		if barcode[i] < '0' || barcode[i] > '9' {
			return "", apperrors.Validationf("invalid barcode %q: must contain only digits", barcode)
		}
	}
	return barcode, nil
}
