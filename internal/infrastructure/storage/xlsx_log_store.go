package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"road-inspector/internal/domain/entity"
	"road-inspector/internal/domain/port"
)

const (
	logSheet       = "Detections"
	imageColumn    = "D"
	imageRowHeight = 80
)

// LogHeader порядок колонок таблицы журнала
var LogHeader = []string{"Timestamp", "Defect Type", "GPS Data", "Image", "Image Path"}

var columnWidths = map[string]float64{"A": 20, "B": 20, "C": 30, "D": 18, "E": 40}

// XLSXLogStore журнал дефектов в xlsx-файле с одним листом.
type XLSXLogStore struct {
	path       string
	imageScale float64
	log        *slog.Logger
}

// NewXLSXLogStore создаёт хранилище; файл появится при первой записи или вызове Init.
func NewXLSXLogStore(path string, imageScale float64, log *slog.Logger) *XLSXLogStore {
	if imageScale <= 0 {
		imageScale = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &XLSXLogStore{
		path:       path,
		imageScale: imageScale,
		log:        log.With("component", "log_store", "file", path),
	}
}

func (s *XLSXLogStore) Path() string {
	return s.path
}

// Init создаёт файл с заголовком, если его нет.
func (s *XLSXLogStore) Init() error {
	f, _, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()
	return nil
}

// Append дописывает строку в конец листа.
func (s *XLSXLogStore) Append(ctx context.Context, event entity.DetectionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, sheet, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	row := event.Row()
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	values := []interface{}{row.Timestamp, row.DefectType, row.GpsData, "", filepath.ToSlash(row.ImagePath)}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row: %w", err)
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save log: %w", err)
	}
	return nil
}

// FinalizeThumbnails встраивает миниатюры в колонку Image. Строки без файла пропускаются
// с предупреждением. Картинка в ячейке заменяется, поэтому повторный вызов ничего не дублирует.
func (s *XLSXLogStore) FinalizeThumbnails(ctx context.Context) error {
	f, sheet, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	for col, width := range columnWidths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("set column %s width: %w", col, err)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	embedded := 0
	for i := 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rowNum := i + 1
		path := cellAt(rows[i], 4)
		if path == "" {
			continue
		}
		if _, err := os.Stat(filepath.FromSlash(path)); err != nil {
			s.log.Warn("thumbnail missing, row left without image", "row", rowNum, "path", path, "err", err)
			continue
		}

		cell := fmt.Sprintf("%s%d", imageColumn, rowNum)
		if err := f.DeletePicture(sheet, cell); err != nil {
			s.log.Warn("remove previous image", "cell", cell, "err", err)
		}
		if err := f.AddPicture(sheet, cell, filepath.FromSlash(path), &excelize.GraphicOptions{
			ScaleX:          s.imageScale,
			ScaleY:          s.imageScale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		}); err != nil {
			s.log.Warn("embed thumbnail", "cell", cell, "path", path, "err", err)
			continue
		}
		if err := f.SetRowHeight(sheet, rowNum, imageRowHeight); err != nil {
			return fmt.Errorf("set row %d height: %w", rowNum, err)
		}
		embedded++
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save log: %w", err)
	}
	s.log.Info("images embedded and sheet formatted", "rows", len(rows)-1, "images", embedded)
	return nil
}

// Rows перечитывает строки данных без заголовка.
func (s *XLSXLogStore) Rows(ctx context.Context) ([]entity.LogRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([]entity.LogRow, 0, len(rows)-1)
	for _, r := range rows[1:] {
		out = append(out, entity.LogRow{
			Timestamp:  cellAt(r, 0),
			DefectType: cellAt(r, 1),
			GpsData:    cellAt(r, 2),
			ImagePath:  cellAt(r, 4),
		})
	}
	return out, nil
}

// Pictures возвращает число картинок, встроенных в колонку Image каждой строки данных.
func (s *XLSXLogStore) Pictures() ([]int, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	counts := make([]int, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		pics, err := f.GetPictures(sheet, fmt.Sprintf("%s%d", imageColumn, i+1))
		if err != nil {
			return nil, err
		}
		counts = append(counts, len(pics))
	}
	return counts, nil
}

// open открывает файл журнала или создаёт его с заголовком.
func (s *XLSXLogStore) open() (*excelize.File, string, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, f.GetSheetName(f.GetActiveSheetIndex()), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("open log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}
	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), logSheet); err != nil {
		f.Close()
		return nil, "", err
	}
	header := make([]interface{}, len(LogHeader))
	for i, h := range LogHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(logSheet, "A1", &header); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("write header: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("create log: %w", err)
	}
	s.log.Info("log table created")
	return f, logSheet, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

var _ port.LogStore = (*XLSXLogStore)(nil)
