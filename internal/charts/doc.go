// Package charts builds the dashboard: scalar KPIs and chart specifications
// (bar, line, pie, donut and treemap) derived from reconciled rows. Figures are
// plain data; rendering is left to the client.
package charts
