// Package imggen 图片生成模块
package imggen

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// CoverConfig 占位封面参数
type CoverConfig struct {
	Title    string
	Subtitle string // 例如 "80 EP"
	Seed     string // 用于挑选配色，一般传 bookId
	Width    int
	Height   int
}

// 渐变配色，按 Seed 固定选择
var palettes = [][2]color.RGBA{
	{{30, 60, 114, 255}, {15, 23, 42, 255}},
	{{114, 30, 60, 255}, {15, 23, 42, 255}},
	{{88, 28, 135, 255}, {30, 27, 75, 255}},
	{{6, 95, 70, 255}, {15, 23, 42, 255}},
	{{154, 52, 18, 255}, {28, 25, 23, 255}},
}

var (
	textColor    = color.RGBA{255, 255, 255, 255}
	subTextColor = color.RGBA{203, 213, 225, 255}
	accentColor  = color.RGBA{250, 204, 21, 255}
)

var (
	fontsOnce sync.Once
	boldFont  *truetype.Font
	regFont   *truetype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontsErr = truetype.Parse(gobold.TTF)
		if fontsErr != nil {
			return
		}
		regFont, fontsErr = truetype.Parse(goregular.TTF)
	})
	return fontsErr
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

// GenerateCover 生成竖版占位封面 PNG
func GenerateCover(cfg CoverConfig) ([]byte, error) {
	if cfg.Width <= 0 {
		cfg.Width = 300
	}
	if cfg.Height <= 0 {
		cfg.Height = 400
	}
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	dc := gg.NewContext(cfg.Width, cfg.Height)

	drawBackground(dc, cfg.Width, cfg.Height, pickPalette(cfg.Seed))

	// 顶部装饰条
	dc.SetColor(accentColor)
	dc.DrawRoundedRectangle(w*0.1, h*0.08, w*0.2, 6, 3)
	dc.Fill()

	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = "DramaBox"
	}
	dc.SetFontFace(face(boldFont, w/10))
	dc.SetColor(textColor)
	dc.DrawStringWrapped(title, w/2, h*0.45, 0.5, 0.5, w*0.8, 1.3, gg.AlignCenter)

	if cfg.Subtitle != "" {
		dc.SetFontFace(face(regFont, w/16))
		dc.SetColor(subTextColor)
		dc.DrawStringAnchored(cfg.Subtitle, w/2, h*0.88, 0.5, 0.5)
	}

	return exportPNG(dc)
}

func pickPalette(seed string) [2]color.RGBA {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(seed))
	return palettes[hash.Sum32()%uint32(len(palettes))]
}

// drawBackground 纵向渐变背景
func drawBackground(dc *gg.Context, width, height int, p [2]color.RGBA) {
	startColor, endColor := p[0], p[1]
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-t) + float64(endColor.R)*t)
		g := uint8(float64(startColor.G)*(1-t) + float64(endColor.G)*t)
		b := uint8(float64(startColor.B)*(1-t) + float64(endColor.B)*t)
		dc.SetColor(color.RGBA{r, g, b, 255})
		dc.DrawRectangle(0, float64(y), float64(width), 1)
		dc.Fill()
	}
}

// exportPNG 导出为 PNG
func exportPNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
