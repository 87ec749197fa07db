package ui

import "strconv"

// Link is a navigation entry.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// NavBar is everything the layout needs to draw the navigation bar.
type NavBar struct {
	Links     []Link
	Path      string
	CartCount int
	Badge     string
	ShowBadge bool
	MenuOpen  bool
	ToggleID  string
	PanelID   string
	BadgeID   string
}

// Badge returns the cart badge text and whether the badge is shown.
func Badge(count int) (string, bool) {
	if count <= 0 {
		return "", false
	}
	return strconv.Itoa(count), true
}

// NewNavBar builds the navigation bar for the page at path.
func NewNavBar(path string, cartCount int, menuOpen bool) NavBar {
	links := []Link{
		{Label: "Home", Href: "/"},
		{Label: "Products", Href: "/products"},
		{Label: "Orders", Href: "/orders"},
		{Label: "Cart", Href: "/cart"},
	}
	for i := range links {
		links[i].Active = isActive(links[i].Href, path)
	}

	badge, show := Badge(cartCount)
	return NavBar{
		Links:     links,
		Path:      path,
		CartCount: cartCount,
		Badge:     badge,
		ShowBadge: show,
		MenuOpen:  menuOpen,
		ToggleID:  UserMenuToggleID,
		PanelID:   UserMenuPanelID,
		BadgeID:   CartBadgeID,
	}
}

func isActive(href, path string) bool {
	if href == "/" {
		return path == "/"
	}
	return path == href || (len(path) > len(href) && path[:len(href)] == href && path[len(href)] == '/')
}
