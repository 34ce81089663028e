// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tidechat/internal/ui/styles"
)

// =============================================================================
// MATRIX RAIN ANIMATION
// =============================================================================

// matrixGlyphs are the characters used for the rain columns.
const matrixGlyphs = "abcdefghijklmnopqrstuvwxyz0123456789$+-*/=%#&_"

// MatrixFPS is the animation frame rate.
const MatrixFPS = 15

// MatrixTickMsg advances the animation by one frame.
type MatrixTickMsg time.Time

// MatrixDoneMsg signals that the animation finished or was dismissed.
type MatrixDoneMsg struct{}

// matrixColumn is one falling stream of glyphs.
type matrixColumn struct {
	head   int // Row of the bright head glyph
	length int // Trail length behind the head
	speed  int // Rows advanced per frame
	glyphs []rune
}

// Matrix is the full-screen cmatrix easter egg animation.
type Matrix struct {
	theme   *styles.Theme
	columns []matrixColumn
	width   int
	height  int
	frames  int
	active  bool
	rng     *rand.Rand
}

// NewMatrix creates the animation component.
func NewMatrix(theme *styles.Theme) *Matrix {
	return &Matrix{
		theme: theme,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start initializes the columns for the given size and begins ticking.
func (m *Matrix) Start(width, height int) tea.Cmd {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	m.width = width
	m.height = height
	m.frames = 0
	m.active = true

	m.columns = make([]matrixColumn, width)
	for i := range m.columns {
		m.columns[i] = m.newColumn()
	}

	return m.tick()
}

// newColumn creates a column with randomized start position and speed.
func (m *Matrix) newColumn() matrixColumn {
	glyphs := make([]rune, m.height)
	for i := range glyphs {
		glyphs[i] = rune(matrixGlyphs[m.rng.Intn(len(matrixGlyphs))])
	}
	return matrixColumn{
		head:   -m.rng.Intn(m.height + 1),
		length: 3 + m.rng.Intn(m.height/2+1),
		speed:  1 + m.rng.Intn(2),
		glyphs: glyphs,
	}
}

// Stop ends the animation.
func (m *Matrix) Stop() {
	m.active = false
}

// IsActive reports whether the animation is running.
func (m *Matrix) IsActive() bool {
	return m.active
}

// SetSize resizes the animation grid.
func (m *Matrix) SetSize(width, height int) {
	if !m.active || width == m.width && height == m.height {
		m.width = width
		m.height = height
		return
	}
	m.Start(width, height)
}

// tick schedules the next frame.
func (m *Matrix) tick() tea.Cmd {
	return tea.Tick(time.Second/MatrixFPS, func(t time.Time) tea.Msg {
		return MatrixTickMsg(t)
	})
}

// Update advances the animation on each tick.
func (m *Matrix) Update(msg tea.Msg) tea.Cmd {
	if !m.active {
		return nil
	}

	if _, ok := msg.(MatrixTickMsg); !ok {
		return nil
	}

	m.frames++
	for i := range m.columns {
		col := &m.columns[i]
		col.head += col.speed

		// Recycle columns that have fully scrolled past the bottom.
		if col.head-col.length > m.height {
			m.columns[i] = m.newColumn()
		}

		// Mutate a few glyphs for shimmer.
		for j := 0; j < 2; j++ {
			row := m.rng.Intn(m.height)
			col.glyphs[row] = rune(matrixGlyphs[m.rng.Intn(len(matrixGlyphs))])
		}
	}

	return m.tick()
}

// View renders the current frame.
func (m *Matrix) View() string {
	if !m.active || m.height == 0 {
		return ""
	}

	rows := make([]strings.Builder, m.height)

	for x := 0; x < m.width; x++ {
		col := m.columns[x]
		for y := 0; y < m.height; y++ {
			var cell string
			switch {
			case y == col.head:
				cell = m.theme.MatrixHead.Render(string(col.glyphs[y]))
			case y < col.head && y > col.head-col.length:
				cell = m.theme.MatrixTrail.Render(string(col.glyphs[y]))
			default:
				cell = " "
			}
			rows[y].WriteString(cell)
		}
	}

	var out strings.Builder
	for y := range rows {
		if y > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(rows[y].String())
	}

	hint := m.theme.OverlayText.Render("press any key to exit")
	return out.String() + "\n" + hint
}
