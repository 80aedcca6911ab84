package symbols

// Panel tracks whether the result list of a search box is shown. It opens
// when focus enters the box, stays open while focus moves between elements
// inside it, and closes on blur to outside or once a result is chosen.
type Panel struct {
	open  bool
	query string
}

// Focus marks focus entering the search box.
func (p *Panel) Focus() { p.open = true }

// Blur marks focus leaving an element. insideBox tells whether the element
// receiving focus belongs to the same box.
func (p *Panel) Blur(insideBox bool) {
	if !insideBox {
		p.open = false
	}
}

// Open reports whether results are shown.
func (p *Panel) Open() bool { return p.open }

// SetQuery records the text typed into the box.
func (p *Panel) SetQuery(q string) { p.query = q }

// Query returns the text in the box.
func (p *Panel) Query() string { return p.query }

// Select fills the box with the chosen symbol, closes the list and returns
// the route to navigate to.
func (p *Panel) Select(sym Symbol) string {
	p.query = sym.Symbol
	p.open = false
	return Route(sym)
}
