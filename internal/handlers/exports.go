package handlers

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	exportTypeTiers = "tiers"
	exportTypeLines = "lines"
)

const timeLayout = time.RFC3339

// ExportJSON выгружает сохраненный расчет в JSON-файл.
func (h *QuoteHandler) ExportJSON(c echo.Context) error {
	saved, err := h.loadQuote(c)
	if err != nil || saved == nil {
		return err
	}

	response, err := toSavedQuoteResponse(*saved)
	if err != nil {
		return serverError(c)
	}

	filename := "quote-" + saved.ID.String() + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.JSON(http.StatusOK, response)
}

// ExportCSV выгружает сохраненный расчет в CSV: таблицу цен по ступеням или разбор строк.
func (h *QuoteHandler) ExportCSV(c echo.Context) error {
	saved, err := h.loadQuote(c)
	if err != nil || saved == nil {
		return err
	}

	exportType := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if exportType == "" {
		exportType = exportTypeTiers
	}

	response, err := toSavedQuoteResponse(*saved)
	if err != nil {
		slog.Error("stored quote is unreadable", slog.String("quote_id", saved.ID.String()), slog.String("error", err.Error()))
		return serverError(c)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	switch exportType {
	case exportTypeTiers:
		if err := writeTiersCSV(writer, response); err != nil {
			return serverError(c)
		}
	case exportTypeLines:
		if err := writeLinesCSV(writer, response); err != nil {
			return serverError(c)
		}
	default:
		return badRequest(c, "invalid export type")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := "quote-" + saved.ID.String() + "-" + exportType + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeTiersCSV(writer *csv.Writer, response SavedQuoteResponse) error {
	header := []string{
		"quote_id",
		"quote_title",
		"price_version",
		"tier",
		"pax",
		"total_fixed_eur",
		"share_cost_eur",
		"land_cost",
		"net_cost",
		"suggested_price",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, tier := range response.Quote.Tiers {
		record := []string{
			response.ID.String(),
			response.Title,
			response.PriceVersion,
			tier.TierLabel,
			formatInt(tier.Pax),
			response.Quote.TotalFixedEUR.StringFixed(2),
			tier.ShareCostEUR.StringFixed(2),
			formatInt64(tier.LandCostLocal),
			formatInt64(tier.NetCostLocal),
			formatInt64(tier.SuggestedPriceLocal),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func writeLinesCSV(writer *csv.Writer, response SavedQuoteResponse) error {
	header := []string{
		"index",
		"day",
		"field",
		"text",
		"status",
		"amount_eur",
		"missing",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, line := range response.Quote.Lines {
		for _, resolution := range line.Resolutions {
			record := []string{
				formatInt(line.Index),
				line.DayLabel,
				string(resolution.Field),
				resolution.Text,
				string(resolution.Status),
				resolution.Amount.StringFixed(2),
				strings.Join(resolution.Missing, " + "),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	return nil
}

func formatInt64(value int64) string {
	return strconv.FormatInt(value, 10)
}

func formatInt(value int) string {
	return strconv.Itoa(value)
}
