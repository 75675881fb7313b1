package charts

import "encoding/json"

// Figure is a Plotly-compatible chart payload. It is marshaled to JSON and
// handed to Plotly.newPlot in the browser; only the fields the builder sets
// are serialized.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// JSON serializes the figure for embedding in a page.
func (f Figure) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Trace is one Plotly trace. Pie traces use Labels/Values; bar traces use
// X/Y.
type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name,omitempty"`
	Labels        []string  `json:"labels,omitempty"`
	Values        []int     `json:"values,omitempty"`
	X             []any     `json:"x,omitempty"`
	Y             []any     `json:"y,omitempty"`
	Orientation   string    `json:"orientation,omitempty"`
	Text          []string  `json:"text,omitempty"`
	TextInfo      string    `json:"textinfo,omitempty"`
	TextPosition  string    `json:"textposition,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	CliponAxis    *bool     `json:"cliponaxis,omitempty"`
	AutoMargin    bool      `json:"automargin,omitempty"`
	Pull          []float64 `json:"pull,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
}

// Marker holds trace coloring.
type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// Layout is the subset of Plotly layout the builder uses.
type Layout struct {
	Title        string  `json:"title,omitempty"`
	ShowLegend   *bool   `json:"showlegend,omitempty"`
	Legend       *Legend `json:"legend,omitempty"`
	BarMode      string  `json:"barmode,omitempty"`
	BarGap       float64 `json:"bargap,omitempty"`
	BarGroupGap  float64 `json:"bargroupgap,omitempty"`
	PaperBGColor string  `json:"paper_bgcolor,omitempty"`
	PlotBGColor  string  `json:"plot_bgcolor,omitempty"`
	Height       int     `json:"height,omitempty"`
	Width        int     `json:"width,omitempty"`
	Margin       *Margin `json:"margin,omitempty"`
	XAxis        *Axis   `json:"xaxis,omitempty"`
	YAxis        *Axis   `json:"yaxis,omitempty"`
}

// Legend positions the chart legend.
type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	XAnchor     string  `json:"xanchor,omitempty"`
}

// Margin is the layout margin in pixels.
type Margin struct {
	T int `json:"t"`
	B int `json:"b"`
	L int `json:"l"`
	R int `json:"r"`
}

// Axis configures one chart axis.
type Axis struct {
	Title         string    `json:"title,omitempty"`
	Range         []float64 `json:"range,omitempty"`
	ShowGrid      *bool     `json:"showgrid,omitempty"`
	ZeroLine      *bool     `json:"zeroline,omitempty"`
	AutoMargin    bool      `json:"automargin,omitempty"`
	CategoryOrder string    `json:"categoryorder,omitempty"`
	CategoryArray []string  `json:"categoryarray,omitempty"`
}

func boolPtr(v bool) *bool { return &v }
