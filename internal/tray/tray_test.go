package tray

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleBeforeReady(t *testing.T) {
	tr := New("edgekvm")
	assert.Equal(t, "EdgeKVM", tr.Title())

	tr.SetTitle("EdgeKVM: CLIENT")
	assert.Equal(t, "EdgeKVM: CLIENT", tr.Title())
}

func TestMenuItemsBeforeRun(t *testing.T) {
	tr := New("edgekvm")
	back := tr.AddMenuItem("Return to host", func() {})
	tr.AddSeparator()
	quit := tr.AddMenuItem("Quit", func() {})

	assert.Equal(t, 0, back)
	assert.Equal(t, 2, quit)
	assert.Len(t, tr.items, 3)
	assert.Nil(t, tr.items[1])

	// not created yet, must not panic
	tr.SetItemEnabled(back, false)
	tr.SetItemEnabled(42, true)
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	assert.Len(t, icon, 1118)
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(icon[2:4]), "type icon")
	size := binary.LittleEndian.Uint32(icon[14:18])
	offset := binary.LittleEndian.Uint32(icon[18:22])
	assert.Equal(t, len(icon), int(size+offset))
}
