package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	cataloguc "github.com/kailas-cloud/prodsearch/internal/usecase/catalog"
)

// Catalog CSV columns.
const (
	colID       = "product_id"
	colName     = "product_name"
	colCategory = "category"
	colPrice    = "price"
	colRating   = "rating"
	colSpecs    = "specifications"
)

var requiredColumns = []string{colID, colName, colCategory, colPrice, colRating, colSpecs}

// readItems parses a header-driven product CSV. Column order is free; extra columns are ignored.
func readItems(r io.Reader) ([]cataloguc.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty catalog file", domain.ErrInvalidRequest)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, domain.NewMissingField(col)
		}
	}

	var items []cataloguc.Item
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		price, err := parseNumber(rec[idx[colPrice]], colPrice)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rating, err := parseNumber(rec[idx[colRating]], colRating)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		items = append(items, cataloguc.Item{
			ID:             strings.TrimSpace(rec[idx[colID]]),
			Name:           strings.TrimSpace(rec[idx[colName]]),
			Category:       strings.TrimSpace(rec[idx[colCategory]]),
			Price:          price,
			Rating:         rating,
			Specifications: rec[idx[colSpecs]],
		})
	}
	return items, nil
}

// parseNumber accepts thousands separators ("89,999"). A blank cell is a missing field.
func parseNumber(raw, col string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, domain.NewMissingField(col)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidProduct, col, raw)
	}
	return v, nil
}
