// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package scanner

import (
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// QRDecoder finds QR codes with gozxing.
type QRDecoder struct {
	mu     sync.Mutex
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{
		reader: zxqrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *QRDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return "", err
	}
	return res.GetText(), nil
}
