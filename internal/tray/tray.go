// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Title    string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	items   []*MenuItem
	title   string
	tooltip string
	ready   bool
	onReady func()
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}
}

// New creates a new system tray
func New(tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		title:   "EdgeKVM",
		tooltip: tooltip,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}

	t.onReady = func() {
		t.mu.Lock()
		systray.SetTitle(t.title)
		systray.SetTooltip(t.tooltip)
		systray.SetIcon(getIcon())
		t.ready = true
		t.mu.Unlock()
		close(t.readyCh)
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem adds a menu item to the tray. Items must be added before Run.
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// SetTitle updates the text next to the tray icon. Safe to call before the
// tray is ready; the last title wins.
func (t *Tray) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
	if t.ready {
		systray.SetTitle(title)
	}
}

// Title returns the current title.
func (t *Tray) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// SetItemEnabled enables or greys out a menu item
func (t *Tray) SetItemEnabled(id int, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.items) || t.items[id] == nil || t.items[id].item == nil {
		return
	}
	if enabled {
		t.items[id].item.Enable()
	} else {
		t.items[id].item.Disable()
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// Ready is closed once the tray is showing.
func (t *Tray) Ready() <-chan struct{} { return t.readyCh }

// Done is closed when the tray loop exits.
func (t *Tray) Done() <-chan struct{} { return t.quitCh }

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		item := systray.AddMenuItem(menuItem.Title, "")
		t.mu.Lock()
		menuItem.item = item
		t.mu.Unlock()

		if menuItem.Callback != nil {
			go func(mi *MenuItem) {
				for {
					select {
					case <-mi.item.ClickedCh:
						mi.Callback()
					case <-t.quitCh:
						return
					}
				}
			}(menuItem)
		}
	}

	t.onReady()
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	icon := make([]byte, 1118)
	// ICO header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// icon directory: 16x16, 32bpp, 1096 bytes at offset 22
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00,
		0x16, 0x00, 0x00, 0x00,
	})
	// BITMAPINFOHEADER, height doubled for the AND mask
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00,
	})
	// pixels and mask stay zero (transparent)
	return icon
}
