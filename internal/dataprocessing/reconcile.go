package dataprocessing

import (
	"strings"

	"ventaperdida/internal/config"
	"ventaperdida/pkg/contracts/domain"
)

// Catalog is the master product table keyed by article id.
type Catalog map[string]domain.CatalogEntry

// BuildCatalog indexes catalog entries by article id. Later entries replace
// earlier ones with the same id.
func BuildCatalog(groups ...[]domain.CatalogEntry) Catalog {
	c := make(Catalog)
	for _, entries := range groups {
		for _, e := range entries {
			id := NormalizeCode(e.ArticleID)
			if id == "" {
				continue
			}
			e.ArticleID = id
			c[id] = e
		}
	}
	return c
}

// Lookup returns the entry for an article id.
func (c Catalog) Lookup(articleID string) (domain.CatalogEntry, bool) {
	e, ok := c[NormalizeCode(articleID)]
	return e, ok
}

// joinColumns are the candidate composite key columns, in key order.
var joinColumns = []domain.Column{
	domain.ColPlaza,
	domain.ColDivision,
	domain.ColCategory,
	domain.ColArticle,
	domain.ColProvider,
	domain.ColWeek,
}

// JoinKeyColumns returns the key columns the net-sales table can be joined on.
func JoinKeyColumns(net domain.NetSalesTable) []domain.Column {
	var cols []domain.Column
	for _, c := range joinColumns {
		if c == domain.ColArticle || net.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Reconcile enriches loss and net-sales rows from the catalog and left-joins
// net sales onto the loss rows. Loss rows are never dropped or duplicated;
// rows without a net-sales match carry a nil NetSales. Net-sales rows sharing
// a key are summed. The returned table is the enriched net-sales side.
func Reconcile(loss []domain.LossRecord, net domain.NetSalesTable, catalog Catalog, tables *config.Tables) ([]domain.ReconciledRecord, domain.NetSalesTable) {
	enrichedNet := enrichNetSales(net, catalog, tables)
	keyCols := JoinKeyColumns(enrichedNet)

	netByKey := make(map[string]float64, len(enrichedNet.Records))
	for _, r := range enrichedNet.Records {
		netByKey[netKey(r, keyCols)] += r.NetSales
	}

	out := make([]domain.ReconciledRecord, 0, len(loss))
	for _, l := range loss {
		rec := domain.ReconciledRecord{LossRecord: l}
		if entry, ok := catalog.Lookup(l.ArticleID); ok {
			rec.Family = fill(rec.Family, entry.Family)
			rec.Segment = fill(rec.Segment, entry.Segment)
			rec.Subcategory = entry.Subcategory
			rec.Provider = fill(rec.Provider, entry.Provider)
			rec.Description = fill(rec.Description, entry.Description)
		}
		if isBrand(rec.Description, tables.BrandToken) {
			rec.Category = tables.RRPCategory
		}

		if len(enrichedNet.Records) > 0 {
			if v, ok := netByKey[lossKey(rec.LossRecord, keyCols)]; ok {
				rec.NetSales = &v
			}
		}

		rec.PlazaName = tables.PlazaName(rec.Plaza)
		rec.DivisionName = tables.DivisionName(rec.Division)
		out = append(out, rec)
	}

	return out, enrichedNet
}

// enrichNetSales fills absent attributes of net-sales rows from the catalog and
// records which columns the enriched table now carries.
func enrichNetSales(net domain.NetSalesTable, catalog Catalog, tables *config.Tables) domain.NetSalesTable {
	cols := make(map[domain.Column]bool, len(net.Columns)+4)
	for c, ok := range net.Columns {
		cols[c] = ok
	}

	records := make([]domain.NetSalesRecord, len(net.Records))
	for i, r := range net.Records {
		if entry, ok := catalog.Lookup(r.ArticleID); ok {
			r.Family = fill(r.Family, entry.Family)
			r.Segment = fill(r.Segment, entry.Segment)
			r.Description = fill(r.Description, entry.Description)
			if !net.Has(domain.ColProvider) {
				r.Provider = fill(r.Provider, entry.Provider)
			}
		}
		if isBrand(r.Description, tables.BrandToken) && net.Has(domain.ColCategory) {
			r.Category = tables.RRPCategory
		}
		records[i] = r

		markFilled(cols, domain.ColFamily, r.Family)
		markFilled(cols, domain.ColSegment, r.Segment)
		markFilled(cols, domain.ColDescription, r.Description)
	}

	return domain.NetSalesTable{Records: records, Columns: cols}
}

func markFilled(cols map[domain.Column]bool, c domain.Column, v string) {
	if v != "" {
		cols[c] = true
	}
}

// fill keeps a non-empty source value and falls back to the catalog otherwise.
func fill(source, fallback string) string {
	if strings.TrimSpace(source) != "" {
		return source
	}
	return fallback
}

func lossKey(r domain.LossRecord, cols []domain.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		switch c {
		case domain.ColPlaza:
			parts[i] = r.Plaza
		case domain.ColDivision:
			parts[i] = r.Division
		case domain.ColCategory:
			parts[i] = r.Category
		case domain.ColArticle:
			parts[i] = r.ArticleID
		case domain.ColProvider:
			parts[i] = r.Provider
		case domain.ColWeek:
			parts[i] = r.WeekKey
		}
	}
	return joinKey(parts)
}

func netKey(r domain.NetSalesRecord, cols []domain.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		switch c {
		case domain.ColPlaza:
			parts[i] = r.Plaza
		case domain.ColDivision:
			parts[i] = r.Division
		case domain.ColCategory:
			parts[i] = r.Category
		case domain.ColArticle:
			parts[i] = r.ArticleID
		case domain.ColProvider:
			parts[i] = r.Provider
		case domain.ColWeek:
			parts[i] = r.WeekKey
		}
	}
	return joinKey(parts)
}

// joinKey re-normalizes every part so "100.0" and "100" key the same row.
func joinKey(parts []string) string {
	for i, p := range parts {
		parts[i] = NormalizeCode(p)
	}
	return strings.Join(parts, "\x1f")
}
