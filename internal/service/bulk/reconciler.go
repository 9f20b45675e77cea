package bulk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
	"golang.org/x/sync/errgroup"
)

const (
	OperationImport             = "import"
	OperationUpdate             = "update"
	OperationAssign             = "assign"
	OperationImportJobPositions = "import-job-positions"
	OperationImportSlots        = "import-slots"
)

// Operations lists every operation accepted by Run.
var Operations = []string{
	OperationImport,
	OperationUpdate,
	OperationAssign,
	OperationImportJobPositions,
	OperationImportSlots,
}

// ValidOperation reports whether operation is one of Operations.
func ValidOperation(operation string) bool {
	for _, op := range Operations {
		if op == operation {
			return true
		}
	}
	return false
}

// Notifier 接收每个批次的结果摘要。
type Notifier interface {
	Notify(xl *xlog.Logger, subject string, body string) error
}

// SlotCreator 创建面试时间段。
type SlotCreator interface {
	CreateSlot(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error
}

// Reconciler 从表格批量导入、更新、分配候选人，以及导入职位与面试时间段。
// 每个源文件在解析之后都会被删除，无论结果如何。
type Reconciler struct {
	candidates store.CandidateStore
	catalog    store.CatalogStore
	slots      SlotCreator
	notifier   Notifier
	workers    int
	location   *time.Location
	now        func() time.Time
	xl         *xlog.Logger
}

func NewReconciler(s *store.Store, slots SlotCreator, notifier Notifier, workers int, xl *xlog.Logger) *Reconciler {
	if xl == nil {
		xl = xlog.New("hiring-bulk")
	}
	if workers <= 0 {
		workers = 1
	}
	return &Reconciler{
		candidates: s.Candidates,
		catalog:    s.Catalog,
		slots:      slots,
		notifier:   notifier,
		workers:    workers,
		location:   time.Local,
		now:        time.Now,
		xl:         xl,
	}
}

// sheetRow is one data row; number is its 1-based row number in the sheet.
type sheetRow struct {
	file   string
	number int
	cells  []string
}

// batch collects the outcome of rows written concurrently.
type batch struct {
	mu     sync.Mutex
	report *model.BulkReport
}

func newBatch(operation string) *batch {
	return &batch{report: &model.BulkReport{Operation: operation, FailedEntries: []model.FailedEntry{}}}
}

func (b *batch) succeed() {
	b.mu.Lock()
	b.report.Success++
	b.mu.Unlock()
}

func (b *batch) skip() {
	b.mu.Lock()
	b.report.Skipped++
	b.mu.Unlock()
}

func (b *batch) fail(row sheetRow, nationalID string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failures++
	b.report.FailedEntries = append(b.report.FailedEntries, model.FailedEntry{
		File:             row.file,
		Row:              row.number,
		NationalIDNumber: nationalID,
		Reason:           err.Error(),
	})
}

func (b *batch) finish() *model.BulkReport {
	sort.Slice(b.report.FailedEntries, func(i, j int) bool {
		a, c := b.report.FailedEntries[i], b.report.FailedEntries[j]
		if a.File != c.File {
			return a.File < c.File
		}
		return a.Row < c.Row
	})
	return b.report
}

// readAndRemove parses every file and deletes it afterwards. A file that cannot be read is
// reported as a failure on row 0 and contributes no rows.
func (r *Reconciler) readAndRemove(xl *xlog.Logger, b *batch, paths []string) map[string][][]string {
	sheets := make(map[string][][]string, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		rows, err := ReadSheet(path)
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			xl.Warnf("failed to remove bulk source %s, error %v", path, removeErr)
		}
		if err != nil {
			xl.Errorf("failed to read sheet %s, error %v", name, err)
			reason := err.Error()
			if serverErr, ok := err.(*errors2.ServerError); ok {
				reason = serverErr.Summary
			}
			b.fail(sheetRow{file: name}, "", fmt.Errorf("cannot read sheet: %s", reason))
			continue
		}
		sheets[name] = rows
	}
	return sheets
}

// dataRows drops the header row and blank rows.
func dataRows(file string, rows [][]string) []sheetRow {
	result := make([]sheetRow, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		result = append(result, sheetRow{file: file, number: i + 1, cells: rows[i]})
	}
	return result
}

// run writes rows with at most r.workers goroutines and waits for all of them.
func (r *Reconciler) run(rows []sheetRow, write func(row sheetRow)) {
	var g errgroup.Group
	g.SetLimit(r.workers)
	for _, row := range rows {
		row := row
		g.Go(func() error {
			write(row)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reconciler) notify(xl *xlog.Logger, report *model.BulkReport) {
	if r.notifier == nil {
		return
	}
	body := fmt.Sprintf("success: %d\nskipped: %d\nfailures: %d", report.Success, report.Skipped, report.Failures)
	for i, entry := range report.FailedEntries {
		if i == 20 {
			body += fmt.Sprintf("\n... %d more", len(report.FailedEntries)-i)
			break
		}
		body += fmt.Sprintf("\n%s row %d %s: %s", entry.File, entry.Row, entry.NationalIDNumber, entry.Reason)
	}
	if err := r.notifier.Notify(xl, "Bulk "+report.Operation, body); err != nil {
		xl.Warnf("failed to send bulk %s summary, error %v", report.Operation, err)
	}
}

// Import 按固定列顺序创建候选人：nationalIdNumber, fullName, phoneNumber, email, specialization,
// graduationDate, qualificationClass, educationalInstitute, gpa, gpaMax, jobPositionId,
// qiyasScore, qiyasSubjectScore, group。
func (r *Reconciler) Import(xl *xlog.Logger, paths []string) *model.BulkReport {
	if xl == nil {
		xl = r.xl
	}
	b := newBatch(OperationImport)
	var rows []sheetRow
	for file, sheet := range r.readAndRemove(xl, b, paths) {
		rows = append(rows, dataRows(file, sheet)...)
	}

	// 同一批次内已确认存在的职位。
	jobPositions := map[string]*model.JobPositionDo{}
	valid := make([]sheetRow, 0, len(rows))
	candidates := make(map[string]*model.CandidateDo, len(rows))
	for _, row := range rows {
		candidate, err := importCandidate(row.cells)
		if err != nil {
			b.fail(row, cell(row.cells, 0), err)
			continue
		}
		jobPosition, ok := jobPositions[candidate.JobPositionID]
		if !ok {
			jobPosition, err = r.catalog.GetJobPosition(xl, candidate.JobPositionID)
			if err != nil {
				if err == store.ErrNotFound {
					err = fmt.Errorf("job position %s does not exist", candidate.JobPositionID)
				}
				b.fail(row, candidate.NationalIDNumber, err)
				continue
			}
			jobPositions[candidate.JobPositionID] = jobPosition
		}
		candidate.AdministrationID = jobPosition.AdministrationID
		valid = append(valid, row)
		candidates[rowKey(row)] = candidate
	}

	now := r.now()
	r.run(valid, func(row sheetRow) {
		candidate := candidates[rowKey(row)]
		candidate.ID = utils.GenerateID()
		candidate.CreatedAt = now
		candidate.UpdatedAt = now
		if err := r.candidates.CreateCandidate(xl, candidate); err != nil {
			if err == store.ErrDuplicate {
				err = fmt.Errorf("candidate already exists")
			}
			b.fail(row, candidate.NationalIDNumber, err)
			return
		}
		b.succeed()
	})
	report := b.finish()
	xl.Infof("bulk import: %d created, %d failed", report.Success, report.Failures)
	r.notify(xl, report)
	return report
}

func rowKey(row sheetRow) string {
	return fmt.Sprintf("%s:%d", row.file, row.number)
}

// importCandidate reads the fixed import columns.
func importCandidate(cells []string) (*model.CandidateDo, error) {
	args := form.CandidateCreateForm{
		NationalIDNumber: parseID(cell(cells, 0)),
		FullName:         cell(cells, 1),
		PhoneNumber:      cell(cells, 2),
		Email:            cell(cells, 3),
		JobPositionID:    parseID(cell(cells, 10)),
		Group:            cell(cells, 13),
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	c := args.ToModel()
	c.Specialization = cell(cells, 4)
	c.QualificationClass = cell(cells, 6)
	c.EducationalInstitute = cell(cells, 7)
	if v := cell(cells, 5); v != "" {
		t, err := parseDate(v, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("graduationDate: %v", err)
		}
		c.GraduationDate = &t
	}
	floats := []struct {
		name   string
		index  int
		target **float64
	}{
		{"gpa", 8, &c.GPA},
		{"gpaMax", 9, &c.GPAMax},
		{"qiyasScore", 11, &c.QiyasScore},
		{"qiyasSubjectScore", 12, &c.QiyasSubjectScore},
	}
	for _, f := range floats {
		v := cell(cells, f.index)
		if v == "" {
			continue
		}
		n, err := parseFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", f.name, err)
		}
		*f.target = &n
	}
	hasTakenQiyas := c.QiyasScore != nil
	c.HasTakenQiyas = &hasTakenQiyas
	return c, nil
}

// Run dispatches paths to the named operation.
func (r *Reconciler) Run(xl *xlog.Logger, operation string, paths []string) (*model.BulkReport, error) {
	switch operation {
	case OperationImport:
		return r.Import(xl, paths), nil
	case OperationUpdate:
		return r.Update(xl, paths)
	case OperationAssign:
		return r.Assign(xl, paths)
	case OperationImportJobPositions:
		return r.ImportJobPositions(xl, paths), nil
	case OperationImportSlots:
		return r.ImportSlots(xl, paths), nil
	}
	return nil, errors2.NewValidation("unknown bulk operation " + operation)
}

// Update 按身份证号匹配已有候选人，写入表头允许列表中的非空列。没有匹配的行计为 skipped。
func (r *Reconciler) Update(xl *xlog.Logger, paths []string) (*model.BulkReport, error) {
	return r.reconcile(xl, OperationUpdate, paths)
}

// Assign 与 Update 相同，另外在出现 qualifiedSectorId 时记录 qualifiedAt。
func (r *Reconciler) Assign(xl *xlog.Logger, paths []string) (*model.BulkReport, error) {
	return r.reconcile(xl, OperationAssign, paths)
}

func (r *Reconciler) reconcile(xl *xlog.Logger, operation string, paths []string) (*model.BulkReport, error) {
	if xl == nil {
		xl = r.xl
	}
	b := newBatch(operation)
	sheets := r.readAndRemove(xl, b, paths)
	files := make([]string, 0, len(sheets))
	for file := range sheets {
		files = append(files, file)
	}
	sort.Strings(files)

	ignored := map[string]bool{}
	var missingKey []string
	for _, file := range files {
		sheet := sheets[file]
		if len(sheet) == 0 {
			continue
		}
		columns := mapColumns(sheet[0])
		if columns.nationalID < 0 {
			missingKey = append(missingKey, file)
			continue
		}
		for _, name := range columns.ignored {
			ignored[name] = true
		}
		now := r.now()
		r.run(dataRows(file, sheet), func(row sheetRow) {
			r.reconcileRow(xl, b, operation, columns, row, now)
		})
	}
	if len(missingKey) > 0 && len(missingKey) == len(files) {
		return nil, errors2.NewValidation("no nationalIdNumber column in " + strings.Join(missingKey, ", "))
	}
	for _, file := range missingKey {
		b.fail(sheetRow{file: file, number: 1}, "", fmt.Errorf("no nationalIdNumber column"))
	}
	report := b.finish()
	for name := range ignored {
		report.IgnoredColumns = append(report.IgnoredColumns, name)
	}
	sort.Strings(report.IgnoredColumns)
	xl.Infof("bulk %s: %d updated, %d skipped, %d failed", operation, report.Success, report.Skipped, report.Failures)
	r.notify(xl, report)
	return report, nil
}

func (r *Reconciler) reconcileRow(xl *xlog.Logger, b *batch, operation string, columns columnMap, row sheetRow, now time.Time) {
	nationalID := parseID(cell(row.cells, columns.nationalID))
	if nationalID == "" {
		b.fail(row, "", fmt.Errorf("nationalIdNumber is empty"))
		return
	}
	candidate, err := r.candidates.GetCandidateByNationalID(xl, nationalID)
	if err != nil {
		if err == store.ErrNotFound {
			b.skip()
			return
		}
		b.fail(row, nationalID, err)
		return
	}
	if err := columns.apply(candidate, row.cells, now); err != nil {
		b.fail(row, nationalID, err)
		return
	}
	if cell(row.cells, columns.sector) != "" {
		sector, err := r.catalog.GetSector(xl, candidate.QualifiedSectorID)
		if err != nil {
			if err == store.ErrNotFound {
				err = fmt.Errorf("sector %s does not exist", candidate.QualifiedSectorID)
			}
			b.fail(row, nationalID, err)
			return
		}
		if sector.AdministrationID != "" {
			candidate.AdministrationID = sector.AdministrationID
		}
		if operation == OperationAssign {
			candidate.QualifiedAt = &now
		}
	}
	candidate.UpdatedAt = now
	if err := r.candidates.UpdateCandidate(xl, candidate); err != nil {
		b.fail(row, nationalID, err)
		return
	}
	b.succeed()
}

// ImportJobPositions 按固定列顺序导入职位：title, description, code, administrationId。
func (r *Reconciler) ImportJobPositions(xl *xlog.Logger, paths []string) *model.BulkReport {
	if xl == nil {
		xl = r.xl
	}
	b := newBatch(OperationImportJobPositions)
	for file, sheet := range r.readAndRemove(xl, b, paths) {
		for _, row := range dataRows(file, sheet) {
			jobPosition := &model.JobPositionDo{
				ID:               utils.GenerateID(),
				Title:            cell(row.cells, 0),
				Description:      cell(row.cells, 1),
				Code:             cell(row.cells, 2),
				AdministrationID: parseID(cell(row.cells, 3)),
				CreatedAt:        r.now(),
			}
			if err := r.checkJobPosition(xl, jobPosition); err != nil {
				b.fail(row, "", err)
				continue
			}
			if err := r.catalog.CreateJobPosition(xl, jobPosition); err != nil {
				b.fail(row, "", err)
				continue
			}
			b.succeed()
		}
	}
	report := b.finish()
	r.notify(xl, report)
	return report
}

func (r *Reconciler) checkJobPosition(xl *xlog.Logger, jobPosition *model.JobPositionDo) error {
	if jobPosition.Title == "" {
		return fmt.Errorf("title is empty")
	}
	if jobPosition.AdministrationID == "" {
		return fmt.Errorf("administrationId is empty")
	}
	if _, err := r.catalog.GetAdministration(xl, jobPosition.AdministrationID); err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("administration %s does not exist", jobPosition.AdministrationID)
		}
		return err
	}
	return nil
}

// ImportSlots 按固定列顺序导入面试时间段：administrationId, googleMapsLink, locationName,
// startDate, startTime, endDate, endTime, maxCandidatesCapacity。
func (r *Reconciler) ImportSlots(xl *xlog.Logger, paths []string) *model.BulkReport {
	if xl == nil {
		xl = r.xl
	}
	b := newBatch(OperationImportSlots)
	for file, sheet := range r.readAndRemove(xl, b, paths) {
		for _, row := range dataRows(file, sheet) {
			args, err := r.slotForm(row.cells)
			if err == nil {
				err = args.Validate()
			}
			if err == nil {
				_, err = r.catalog.GetAdministration(xl, args.AdministrationID)
				if err == store.ErrNotFound {
					err = fmt.Errorf("administration %s does not exist", args.AdministrationID)
				}
			}
			if err == nil {
				err = r.slots.CreateSlot(xl, args.ToModel())
			}
			if err != nil {
				b.fail(row, "", err)
				continue
			}
			b.succeed()
		}
	}
	report := b.finish()
	r.notify(xl, report)
	return report
}

func (r *Reconciler) slotForm(cells []string) (*form.SlotCreateForm, error) {
	start, err := r.dateTime(cell(cells, 3), cell(cells, 4))
	if err != nil {
		return nil, fmt.Errorf("start: %v", err)
	}
	end, err := r.dateTime(cell(cells, 5), cell(cells, 6))
	if err != nil {
		return nil, fmt.Errorf("end: %v", err)
	}
	capacity := 0
	if v := cell(cells, 7); v != "" {
		f, err := parseFloat(v)
		if err != nil {
			return nil, fmt.Errorf("maxCandidatesCapacity: %v", err)
		}
		capacity = int(f)
	}
	return &form.SlotCreateForm{
		AdministrationID:      parseID(cell(cells, 0)),
		GoogleMapsLink:        cell(cells, 1),
		LocationName:          cell(cells, 2),
		StartDateTime:         start,
		EndDateTime:           end,
		MaxCandidatesCapacity: capacity,
	}, nil
}

func (r *Reconciler) dateTime(date string, clock string) (time.Time, error) {
	day, err := parseDate(date, r.location)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return day, nil
	}
	offset, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, r.location).Add(offset), nil
}
