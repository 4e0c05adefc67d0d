package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"github.com/peochain/peochain-api/models"
	"github.com/peochain/peochain-api/utils"
)

// Export handles GET /api/analytics/export, streaming the full waitlist as
// a spreadsheet or PDF download for the marketing team
func (ac *AnalyticsController) Export(c *gin.Context) {
	utils.LogInfo("Waitlist export called")

	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "pdf" {
		utils.BadRequest(c, "Invalid format", "Format must be xlsx or pdf")
		return
	}

	entries, err := ac.service.GetAllEntries(c.Request.Context())
	if err != nil {
		utils.LogError("Failed to load entries for export: %v", err)
		utils.InternalServerError(c, "Failed to export waitlist", nil)
		return
	}
	utils.LogDebug("Exporting %d waitlist entries as %s", len(entries), format)

	filename := fmt.Sprintf("peochain-waitlist-%s", time.Now().Format("2006-01-02"))
	if format == "pdf" {
		exportPDF(c, entries, filename)
		return
	}
	exportExcel(c, entries, filename)
}

var exportHeaders = []string{"ID", "Full Name", "Email", "Referral Code", "Referred By", "Referrals", "User Type", "Joined"}

func exportExcel(c *gin.Context, entries []models.WaitlistEntry, filename string) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Waitlist")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to export waitlist", nil)
		return
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString("PEOCHAIN - Waitlist Export")
	dateRow := sheet.AddRow()
	dateRow.AddCell().SetString("Generated: " + time.Now().Format("2006-01-02 15:04:05"))
	sheet.AddRow() // spacing

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetString(h)
	}

	for _, entry := range entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(entry.ID))
		row.AddCell().SetString(entry.FullName)
		row.AddCell().SetString(entry.Email)
		row.AddCell().SetString(entry.ReferralCode)
		row.AddCell().SetString(entry.ReferredBy)
		row.AddCell().SetInt(entry.ReferralCount)
		row.AddCell().SetString(entry.UserType)
		row.AddCell().SetString(entry.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel export: %v", err)
	}
}

func exportPDF(c *gin.Context, entries []models.WaitlistEntry, filename string) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "PEOCHAIN - Waitlist Export")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 8, "Generated: "+time.Now().Format("2006-01-02 15:04:05"))
	pdf.Ln(10)

	colWidths := []float64{15, 50, 65, 30, 30, 22, 25, 40}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range exportHeaders {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, entry := range entries {
		cells := []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.FullName,
			entry.Email,
			entry.ReferralCode,
			entry.ReferredBy,
			strconv.Itoa(entry.ReferralCount),
			entry.UserType,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for i, cell := range cells {
			pdf.CellFormat(colWidths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to write PDF export: %v", err)
	}
}
