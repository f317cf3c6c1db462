package domain

// FigureKind enumerates the chart types the dashboard renders.
type FigureKind string

// Figure kinds.
const (
	FigureBar     FigureKind = "bar"
	FigureLine    FigureKind = "line"
	FigurePie     FigureKind = "pie"
	FigureDonut   FigureKind = "donut"
	FigureTreemap FigureKind = "treemap"
)

// Series is one trace of a figure. Y values are nil where not applicable.
type Series struct {
	Name  string     `json:"name"`
	Kind  FigureKind `json:"kind"`
	X     []string   `json:"x"`
	Y     []*float64 `json:"y"`
	Text  []string   `json:"text,omitempty"`
	Color string     `json:"color,omitempty"`
	Axis  string     `json:"axis,omitempty"`
}

// TreemapNode is one node of a hierarchical figure.
type TreemapNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Parent string  `json:"parent"`
	Value  float64 `json:"value"`
}

// Figure is a chart specification; rendering is left to the client.
type Figure struct {
	ID      string        `json:"id"`
	Kind    FigureKind    `json:"kind"`
	Title   string        `json:"title"`
	XTitle  string        `json:"x_title,omitempty"`
	YTitle  string        `json:"y_title,omitempty"`
	Stacked bool          `json:"stacked,omitempty"`
	Series  []Series      `json:"series,omitempty"`
	Nodes   []TreemapNode `json:"nodes,omitempty"`
	Warning string        `json:"warning,omitempty"`
}

// KPIs are the scalar metrics shown above the charts.
type KPIs struct {
	FilteredLoss  int64    `json:"filtered_loss"`
	TotalLoss     int64    `json:"total_loss"`
	ShareOfTotal  *float64 `json:"share_of_total"`
	NetSales      *float64 `json:"net_sales"`
	LossToNetRate *float64 `json:"loss_to_net_rate"`
}

// Dashboard is the full response for one filter selection.
type Dashboard struct {
	Version     string   `json:"version"`
	Filter      Filter   `json:"filter"`
	View        View     `json:"view"`
	Accumulated bool     `json:"accumulated"`
	KPIs        KPIs     `json:"kpis"`
	Figures     []Figure `json:"figures"`
	Notes       []string `json:"notes,omitempty"`
}

// Options lists the distinct values available for each sidebar control.
type Options struct {
	Providers  []string `json:"providers"`
	Plazas     []string `json:"plazas"`
	Categories []string `json:"categories"`
	Divisions  []string `json:"divisions"`
	Markets    []string `json:"markets"`
	Weeks      []string `json:"weeks"`
	Families   []string `json:"families"`
	Segments   []string `json:"segments"`
}
