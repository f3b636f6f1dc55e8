// Package imggen 图片生成测试
package imggen

import (
	"bytes"
	"image/png"
	"testing"
)

func TestGenerateCover(t *testing.T) {
	tests := []struct {
		name  string
		cfg   CoverConfig
		wantW int
		wantH int
	}{
		{"默认尺寸", CoverConfig{Title: "Istri Rahasia Sang CEO", Subtitle: "80 EP", Seed: "41000100001"}, 300, 400},
		{"自定义尺寸", CoverConfig{Title: "A", Width: 160, Height: 90}, 160, 90},
		{"空标题", CoverConfig{}, 300, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := GenerateCover(tt.cfg)
			if err != nil {
				t.Fatalf("GenerateCover() error = %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("输出不是合法 PNG: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("尺寸 = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPickPalette_Stable(t *testing.T) {
	a := pickPalette("41000100001")
	for i := 0; i < 5; i++ {
		if pickPalette("41000100001") != a {
			t.Fatal("同一个 seed 应该得到相同配色")
		}
	}
}
