package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Tables holds the static recoding and display tables used by ingestion and
// reconciliation. They are loaded once at startup and passed explicitly.
type Tables struct {
	// ProviderRecode maps raw provider labels to canonical names (exact match).
	ProviderRecode map[string]string `yaml:"provider_recode"`
	// RemoveProvider is the sentinel a provider recodes to when its rows must be dropped.
	RemoveProvider string `yaml:"remove_provider"`
	// BrandToken moves rows whose description contains it into RRPCategory.
	BrandToken  string `yaml:"brand_token"`
	RRPCategory string `yaml:"rrp_category"`

	PlazaNames     map[string]string `yaml:"plaza_names"`
	DivisionNames  map[string]string `yaml:"division_names"`
	ProviderShort  map[string]string `yaml:"provider_short_names"`
	DroppedColumns []string          `yaml:"dropped_columns"`

	// HeaderAliases maps a canonical column to the source headers that mean it.
	HeaderAliases map[string][]string `yaml:"header_aliases"`

	CodeWidths CodeWidths `yaml:"code_widths"`
}

// CodeWidths are the fixed leading-digit widths of the hierarchical codes.
type CodeWidths struct {
	Plaza    int `yaml:"plaza"`
	Division int `yaml:"division"`
	Market   int `yaml:"market"`
}

// LoadTables reads tables from a YAML file and fills anything missing from DefaultTables.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}

	t.fillDefaults(DefaultTables())
	return &t, nil
}

func (t *Tables) fillDefaults(d *Tables) {
	if t.ProviderRecode == nil {
		t.ProviderRecode = d.ProviderRecode
	}
	if t.RemoveProvider == "" {
		t.RemoveProvider = d.RemoveProvider
	}
	if t.BrandToken == "" {
		t.BrandToken = d.BrandToken
	}
	if t.RRPCategory == "" {
		t.RRPCategory = d.RRPCategory
	}
	if t.PlazaNames == nil {
		t.PlazaNames = d.PlazaNames
	}
	if t.DivisionNames == nil {
		t.DivisionNames = d.DivisionNames
	}
	if t.ProviderShort == nil {
		t.ProviderShort = d.ProviderShort
	}
	if t.DroppedColumns == nil {
		t.DroppedColumns = d.DroppedColumns
	}
	if t.HeaderAliases == nil {
		t.HeaderAliases = d.HeaderAliases
	} else {
		for k, v := range d.HeaderAliases {
			if _, ok := t.HeaderAliases[k]; !ok {
				t.HeaderAliases[k] = v
			}
		}
	}
	if t.CodeWidths.Plaza <= 0 {
		t.CodeWidths.Plaza = d.CodeWidths.Plaza
	}
	if t.CodeWidths.Division <= 0 {
		t.CodeWidths.Division = d.CodeWidths.Division
	}
	if t.CodeWidths.Market <= 0 {
		t.CodeWidths.Market = d.CodeWidths.Market
	}
}

// ShortProvider returns the short display name for a provider, or the name itself.
func (t *Tables) ShortProvider(name string) string {
	if s, ok := t.ProviderShort[name]; ok && s != "" {
		return s
	}
	return name
}

// PlazaName returns the display name for a plaza code, or "" when unknown.
func (t *Tables) PlazaName(code string) string {
	return t.PlazaNames[strings.TrimSpace(code)]
}

// DivisionName returns the display name for a division code, or "" when unknown.
func (t *Tables) DivisionName(code string) string {
	return t.DivisionNames[strings.TrimSpace(code)]
}

// DefaultTables returns the built-in tables used when no file is configured.
func DefaultTables() *Tables {
	return &Tables{
		ProviderRecode: map[string]string{
			"PHILIP MORRIS MEXICO, S.A. DE C.V.":       "PMI",
			"PHILIP MORRIS MEXICO PRODUCTOS Y SERVICIO": "PMI",
			"BRITISH AMERICAN TOBACCO MEXICO":           "BAT",
			"BRITISH AMERICAN TOBACCO MEXICO COMERCIAL": "BAT",
			"JTI MEXICO S DE RL DE CV":                  "JTI",
			"PROVEEDOR GENERICO":                        "ELIMINAR",
		},
		RemoveProvider: "ELIMINAR",
		BrandToken:     "vuse",
		RRPCategory:    "RRPs",
		PlazaNames: map[string]string{
			"100": "Monterrey",
			"200": "Guadalajara",
			"300": "Ciudad de México",
			"400": "Puebla",
			"500": "Mérida",
		},
		DivisionNames: map[string]string{
			"10": "Norte",
			"20": "Occidente",
			"30": "Centro",
			"40": "Sureste",
		},
		ProviderShort: map[string]string{
			"PMI": "PMI",
			"BAT": "BAT",
			"JTI": "JTI",
		},
		DroppedColumns: []string{"INV_TIENDA", "ESTATUS_TIENDA", "COMENTARIOS"},
		HeaderAliases: map[string][]string{
			"plaza":          {"PLAZA", "Plaza", "Plaza Oxxo", "PLAZA_OXXO"},
			"division":       {"DIVISION", "División", "Division"},
			"market":         {"MERCADO", "Mercado"},
			"category":       {"CATEGORIA", "Categoría", "Categoria"},
			"article_id":     {"ID_ARTICULO", "Artículo", "Articulo", "ID Articulo", "ARTICULO"},
			"description":    {"DESC_ARTICULO", "Descripción", "Descripcion", "Desc Articulo"},
			"upc":            {"UPC"},
			"provider":       {"PROVEEDOR", "Proveedor"},
			"store":          {"NOMBRE_TIENDA", "Tienda", "Nombre Tienda"},
			"family":         {"FAMILIA", "Familia"},
			"segment":        {"SEGMENTO", "Segmento"},
			"subcategory":    {"SUBCATEGORIA", "Subcategoría", "Subcategoria"},
			"loss_amount":    {"VENTA_PERDIDA_PESOS", "Venta Perdida", "Venta Perdida Pesos"},
			"net_sales":      {"Venta Neta Total", "VENTA_NETA_TOTAL", "Venta Neta"},
			"week":           {"Semana", "Semana Contable", "SEMANA"},
			"accounting_day": {"Día Contable", "Dia Contable", "Fecha"},
		},
		CodeWidths: CodeWidths{Plaza: 3, Division: 2, Market: 4},
	}
}
