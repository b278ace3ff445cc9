// Package export writes booking lists to Excel workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradepost/internal/logging"
	"tradepost/internal/models"
	"tradepost/internal/status"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

const timeLayout = "02.01.2006 15:04"

var headers = []string{
	"Booking ID", "Listing ID", "Buyer", "Seller", "Status", "Chat", "Messages", "Last message", "Last activity", "Created",
}

// Exporter saves workbooks under a directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logging.Component(logger, "export"), now: time.Now}
}

// Write saves bookings as seen by role and returns the file path.
func (e *Exporter) Write(entity models.EntityType, role status.Role, bookings []models.Booking) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create export directory")
	}

	f, err := Workbook(entity, role, bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("%s_%s_bookings_%s.xlsx", entity, role, e.now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", errors.Wrap(err, "save workbook")
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

// Workbook builds the workbook in memory. Status cells use the role's label
// and background color.
func Workbook(entity models.EntityType, role status.Role, bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "create sheet")
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	styles := make(map[string]int)
	for i, b := range bookings {
		row := i + 2
		cfg := status.For(role, b.Status)
		chat := "Open"
		if status.IsChatDisabled(b.Status) {
			chat = "Closed"
		}

		values := []any{
			b.BookingID,
			b.EntityID,
			partyName(b.BuyerName, b.BuyerID),
			partyName(b.SellerName, b.SellerID),
			cfg.Label,
			chat,
			b.MessageCount,
			b.LastMessage,
			formatTime(b.LastMessageTime),
			formatTime(&b.CreatedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		styleID, ok := styles[cfg.BgColor]
		if !ok {
			styleID, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{cfg.BgColor}, Pattern: 1},
				Font: &excelize.Font{Color: cfg.Color},
			})
			if err != nil {
				continue
			}
			styles[cfg.BgColor] = styleID
		}
		cell, _ := excelize.CoordinatesToCellName(5, row)
		_ = f.SetCellStyle(sheetName, cell, cell, styleID)
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "F", 18)
	_ = f.SetColWidth(sheetName, "G", "G", 10)
	_ = f.SetColWidth(sheetName, "H", "H", 40)
	_ = f.SetColWidth(sheetName, "I", "J", 18)
	if meta, ok := models.EntityInfo(entity); ok {
		_ = f.SetDocProps(&excelize.DocProperties{Title: meta.PluralLabel + " bookings"})
	}
	return f, nil
}

func partyName(name string, id int64) string {
	switch {
	case name != "" && id > 0:
		return fmt.Sprintf("%s (%d)", name, id)
	case name != "":
		return name
	case id > 0:
		return fmt.Sprintf("#%d", id)
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
