package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"stockroom/internal/models"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func printProducts(items []models.ProductRow) {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		low := ""
		if p.LowStock {
			low = "LOW"
		}
		category := p.CategoryName()
		if category == "" {
			category = "-"
		}
		rows = append(rows, []string{
			formatID(p.ID),
			p.Name,
			category,
			p.SKU,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			strconv.Itoa(p.Quantity),
			low,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORY", "SKU", "PRICE", "QTY", ""}, rows)
}

func printCategories(items []models.Category) {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{formatID(c.ID), c.Name})
	}
	printTable([]string{"ID", "NAME"}, rows)
}

func printUsers(items []models.User) {
	rows := make([][]string, 0, len(items))
	for _, u := range items {
		rows = append(rows, []string{formatID(u.ID), u.Username, u.Role})
	}
	printTable([]string{"ID", "USERNAME", "ROLE"}, rows)
}

func printLogs(items []models.ActionLog) {
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		rows = append(rows, []string{l.Timestamp, l.Username, l.Action, l.ProductName})
	}
	printTable([]string{"TIMESTAMP", "USER", "ACTION", "PRODUCT"}, rows)
}
