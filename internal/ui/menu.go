package ui

import "sync"

// Element IDs rendered by the navigation bar.
const (
	UserMenuToggleID = "user-menu-toggle"
	UserMenuPanelID  = "user-menu"
	CartBadgeID      = "cart-badge"
)

// MenuState is the visibility of the user dropdown.
type MenuState int

const (
	MenuClosed MenuState = iota
	MenuOpen
)

func (s MenuState) String() string {
	if s == MenuOpen {
		return "open"
	}
	return "closed"
}

// UserMenu is the two-state dropdown behind the avatar. It starts closed,
// toggles on trigger clicks and closes on any interaction outside both
// the trigger and the panel.
type UserMenu struct {
	mu       sync.Mutex
	state    MenuState
	boundary Boundary
}

// NewUserMenu returns a closed menu.
func NewUserMenu() *UserMenu {
	return &UserMenu{boundary: NewBoundary(UserMenuToggleID, UserMenuPanelID)}
}

// Click applies a pointer interaction on the element with the given ID.
// An empty target is an interaction on the page background.
func (m *UserMenu) Click(target string) MenuState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if target == UserMenuToggleID {
		if m.state == MenuOpen {
			m.state = MenuClosed
		} else {
			m.state = MenuOpen
		}
		return m.state
	}

	m.boundary.OnOutside(target, func() { m.state = MenuClosed })
	return m.state
}

// Open forces the menu open.
func (m *UserMenu) Open() {
	m.mu.Lock()
	m.state = MenuOpen
	m.mu.Unlock()
}

// Close forces the menu closed.
func (m *UserMenu) Close() {
	m.mu.Lock()
	m.state = MenuClosed
	m.mu.Unlock()
}

// State returns the current state.
func (m *UserMenu) State() MenuState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen reports whether the dropdown is visible.
func (m *UserMenu) IsOpen() bool {
	return m.State() == MenuOpen
}
