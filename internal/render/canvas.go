// Package render рисует линии полосы на прозрачном холсте.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
)

// Canvas - RGBA-холст одного кадра, изначально полностью прозрачный
type Canvas struct {
	img *image.RGBA
}

// NewCanvas создает пустой холст размером width x height
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image возвращает изображение холста
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Bounds возвращает границы холста
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Reset очищает холст
func (c *Canvas) Reset() {
	clear(c.img.Pix)
}

// IsBlank сообщает, что на холсте ничего не нарисовано
func (c *Canvas) IsBlank() bool {
	for _, v := range c.img.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// EncodePNG записывает холст в формате PNG
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

// Pool выдает холсты на время обработки одного кадра.
// Возвращенный холст очищается, поэтому следующий кадр всегда начинает с пустого.
type Pool struct {
	pool sync.Pool
}

// Get возвращает пустой холст нужного размера
func (p *Pool) Get(width, height int) *Canvas {
	if c, ok := p.pool.Get().(*Canvas); ok {
		b := c.Bounds()
		if b.Dx() == width && b.Dy() == height {
			return c
		}
	}
	return NewCanvas(width, height)
}

// Put очищает холст и возвращает его в пул
func (p *Pool) Put(c *Canvas) {
	if c == nil {
		return
	}
	c.Reset()
	p.pool.Put(c)
}
