package common

import "github.com/sightline-labs/sightline/internal/config"

// Nav builds the top navigation: home, one entry per configured page,
// and the upload form when uploads are enabled.
func Nav(cfg *config.Config, active string) []NavItem {
	items := []NavItem{{Title: "Home", Icon: "🏠", Href: "/", Active: active == "/"}}
	for _, p := range cfg.Pages {
		href := "/board/" + p.Key
		items = append(items, NavItem{
			Title:  p.Title,
			Icon:   p.Icon,
			Href:   href,
			Active: active == href,
		})
	}
	if cfg.Upload.Password != "" {
		items = append(items, NavItem{Title: "Upload", Icon: "⬆", Href: "/upload", Active: active == "/upload"})
	}
	return items
}
