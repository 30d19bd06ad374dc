package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lox/servoasr/internal/models"
)

// Layout maps form fields to cells of the ASR template. Split fields are
// written one character per cell, left to right from the anchor.
type Layout struct {
	Version int
	Cells   map[models.Field]string
	Split   map[models.Field]bool
	Numeric map[models.Field]bool
	// Clear lists the cells and ranges reset before a form is written.
	Clear []string
}

// NWQLLayout is version 1 of the NWQL servo ASR template.
var NWQLLayout = Layout{
	Version: 1,
	Cells: map[models.Field]string{
		models.FieldStationID:         "P12",
		models.FieldWindowStart:       "Y12",
		models.FieldWindowEnd:         "Y14",
		models.FieldStationName:       "I28",
		models.FieldComment:           "I29",
		models.FieldPrimaryCode:       "D36",
		models.FieldSecondaryCode:     "L36",
		models.FieldFACount:           "H41",
		models.FieldRACount:           "S42",
		models.FieldShipDate:          "AJ52",
		models.FieldConductance:       "H56",
		models.FieldConductanceRemark: "K56",
	},
	Split: map[models.Field]bool{
		models.FieldStationID:   true,
		models.FieldWindowStart: true,
		models.FieldWindowEnd:   true,
	},
	Numeric: map[models.Field]bool{
		models.FieldFACount: true,
		models.FieldRACount: true,
	},
	Clear: []string{
		"D36", "H41", "H56", "K56", "I28", "I29", "L36", "S42", "AJ52",
		"P12:W12", "Y12:AK12", "Y14:AK14",
	},
}

// cellsIn expands "A1" or "A1:C2" into individual cell names.
func cellsIn(ref string) ([]string, error) {
	from, to, isRange := splitRange(ref)
	if !isRange {
		return []string{from}, nil
	}
	c1, r1, err := excelize.CellNameToCoordinates(from)
	if err != nil {
		return nil, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(to)
	if err != nil {
		return nil, err
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}

	cells := make([]string, 0, (c2-c1+1)*(r2-r1+1))
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			name, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			cells = append(cells, name)
		}
	}
	return cells, nil
}

// offsetCell returns the cell n columns right of anchor.
func offsetCell(anchor string, n int) (string, error) {
	col, row, err := excelize.CellNameToCoordinates(anchor)
	if err != nil {
		return "", fmt.Errorf("anchor %s: %w", anchor, err)
	}
	return excelize.CoordinatesToCellName(col+n, row)
}
