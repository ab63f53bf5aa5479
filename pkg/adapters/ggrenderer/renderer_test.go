package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/replay/pkg/ports"
)

func TestCreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 100, color.White)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	bounds := canvas.ToImage().Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("canvas is %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeDecodeJPEG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	if len(data) == 0 {
		t.Error("encoded to zero bytes")
	}

	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("decoded %dx%d, want 50x50", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeDecodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("decoded %dx%d, want 30x30", bounds.Dx(), bounds.Dy())
	}
}

func TestResizeImage(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	resized := r.ResizeImage(img, 50, 50)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("resized to %dx%d, want 50x50", bounds.Dx(), bounds.Dy())
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	red, _, _, _ := canvas.ToImage().At(20, 20).RGBA()
	if red == 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawRoundedRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRoundedRect(10, 10, 60, 40, 8, color.Black)

	// center is inside the rounded shape
	r1, g1, b1, _ := canvas.ToImage().At(40, 30).RGBA()
	if r1 == 65535 && g1 == 65535 && b1 == 65535 {
		t.Error("expected non-white pixel inside rounded rectangle")
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	small := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			small.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	canvas.DrawImage(small, 10, 10)

	red, _, _, _ := canvas.ToImage().At(15, 15).RGBA()
	if red == 0 {
		t.Error("expected red pixel from drawn image")
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			small.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	// scale 10x10 up to 80x80
	canvas.DrawImageScaled(small, 10, 10, 80, 80)

	_, _, blue, _ := canvas.ToImage().At(70, 70).RGBA()
	if blue == 0 {
		t.Error("expected blue pixel from scaled image")
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.White)

	style := ports.TextStyle{
		FontSize: 14,
		Color:    color.Black,
		Align:    ports.AlignLeft,
	}
	canvas.DrawText("1 - 05:30", 10, 25, style)

	if canvas.ToImage() == nil {
		t.Error("expected image to be created")
	}
}

func TestCanvas_MeasureText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.White)

	style := ports.TextStyle{FontSize: 14, Color: color.Black}
	w, h := canvas.MeasureText("GOAL", style)
	if w <= 0 || h <= 0 {
		t.Errorf("MeasureText = %f x %f, want positive", w, h)
	}

	w2, _ := canvas.MeasureText("BALL OUT OF PLAY", style)
	if w2 <= w {
		t.Errorf("longer text measured %f, want wider than %f", w2, w)
	}
}
