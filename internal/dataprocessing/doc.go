// Package dataprocessing turns employee input files into normalized records.
//
// Reading and mapping are separate steps:
//
//	table, err := dataprocessing.ReadTable(path, sheet)   // headers + raw rows
//	result, err := dataprocessing.MapRecords(table.Headers, table.Rows)
//
// The reader knows nothing about column meaning. The mapper locates the
// required columns by name, so column order in the input is irrelevant, and
// accepts the pay rate under any of RateAliases. Rows too short to hold every
// required column are dropped; values are kept as raw strings.
package dataprocessing
