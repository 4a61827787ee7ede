package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"rescuereach/config"
	"rescuereach/models"
	"rescuereach/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		LocationTimeout:    200 * time.Millisecond,
		GeocodeTimeout:     200 * time.Millisecond,
		PlacesTimeout:      200 * time.Millisecond,
		StoreTimeout:       200 * time.Millisecond,
		CountdownSeconds:   2,
		NearbyRadiusMeters: 5000,
		MaxNearbyServices:  3,
		WatchPollInterval:  50 * time.Millisecond,
	}
}

// In-memory stand-ins for the provider contracts, shared by the service
// tests in this package.

type fakeStore struct {
	mu       sync.Mutex
	reports  map[string]*models.SOSReport
	failSave bool
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: map[string]*models.SOSReport{}}
}

func (fs *fakeStore) SaveReport(ctx context.Context, report *models.SOSReport) (*models.SOSReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failSave {
		return nil, errors.New("store unavailable")
	}
	fs.saves++
	clone := *report
	fs.reports[report.ReportID] = &clone
	return &clone, nil
}

func (fs *fakeStore) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, responderInfo map[string]string, cancellation *models.CancellationInfo) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	report, ok := fs.reports[reportID]
	if !ok {
		return utils.NewReportNotFoundError(reportID)
	}
	if !report.Status.CanTransitionTo(status) {
		return utils.NewStatusRegressionError(string(report.Status), string(status))
	}
	report.Status = status
	if responderInfo != nil {
		report.ResponderInfo = responderInfo
	}
	if cancellation != nil {
		report.Cancellation = cancellation
	}
	report.StatusUpdatedAt = time.Now()
	return nil
}

func (fs *fakeStore) GetReportByID(ctx context.Context, reportID string) (*models.SOSReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	report, ok := fs.reports[reportID]
	if !ok {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	clone := *report
	return &clone, nil
}

func (fs *fakeStore) GetUserReports(ctx context.Context, userID string, limit int) ([]models.SOSReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.SOSReport
	for _, r := range fs.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (fs *fakeStore) GetActiveReportsByRegion(ctx context.Context, state string, limit int) ([]models.SOSReport, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.SOSReport
	for _, r := range fs.reports {
		if r.State == state && r.Status != models.StatusResolved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (fs *fakeStore) DeleteReport(ctx context.Context, reportID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.reports, reportID)
	return nil
}

func (fs *fakeStore) AddComment(ctx context.Context, comment *models.ReportComment) error {
	return nil
}

func (fs *fakeStore) GetComments(ctx context.Context, reportID string) ([]models.ReportComment, error) {
	return nil, nil
}

type fakeMirror struct {
	mu      sync.Mutex
	entries map[string]models.LiveStatusEntry
	removed []string
	updates chan models.LiveStatusEntry
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		entries: map[string]models.LiveStatusEntry{},
		updates: make(chan models.LiveStatusEntry, 16),
	}
}

func (fm *fakeMirror) Put(ctx context.Context, entry models.LiveStatusEntry) error {
	fm.mu.Lock()
	fm.entries[entry.ReportID] = entry
	fm.mu.Unlock()
	select {
	case fm.updates <- entry:
	default:
	}
	return nil
}

func (fm *fakeMirror) Remove(ctx context.Context, reportID string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	delete(fm.entries, reportID)
	fm.removed = append(fm.removed, reportID)
	return nil
}

func (fm *fakeMirror) Get(ctx context.Context, reportID string) (*models.LiveStatusEntry, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	entry, ok := fm.entries[reportID]
	if !ok {
		return nil, utils.NewReportNotFoundError(reportID)
	}
	return &entry, nil
}

func (fm *fakeMirror) Subscribe(ctx context.Context, reportID string) (<-chan models.LiveStatusEntry, func(), error) {
	out := make(chan models.LiveStatusEntry, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case entry := <-fm.updates:
				if entry.ReportID == reportID {
					out <- entry
				}
			}
		}
	}()
	var once sync.Once
	return out, func() { once.Do(func() { close(done) }) }, nil
}

type fakePointer struct {
	mu       sync.Mutex
	pointers map[string]string
}

func newFakePointer() *fakePointer {
	return &fakePointer{pointers: map[string]string{}}
}

func (fp *fakePointer) Acquire(ctx context.Context, userID, reportID string) (bool, string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if existing, ok := fp.pointers[userID]; ok {
		return false, existing, nil
	}
	fp.pointers[userID] = reportID
	return true, "", nil
}

func (fp *fakePointer) Get(ctx context.Context, userID string) (string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.pointers[userID], nil
}

func (fp *fakePointer) Clear(ctx context.Context, userID string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	delete(fp.pointers, userID)
	return nil
}

type fakeQueue struct {
	mu      sync.Mutex
	reports []*models.SOSReport
}

func (fq *fakeQueue) Enqueue(ctx context.Context, report *models.SOSReport) error {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	fq.reports = append(fq.reports, report)
	return nil
}

func (fq *fakeQueue) Dequeue(ctx context.Context) (*models.SOSReport, error) {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	if len(fq.reports) == 0 {
		return nil, nil
	}
	report := fq.reports[0]
	fq.reports = fq.reports[1:]
	return report, nil
}

func (fq *fakeQueue) Find(ctx context.Context, reportID string) (*models.SOSReport, error) {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	for _, report := range fq.reports {
		if report.ReportID == reportID {
			return report, nil
		}
	}
	return nil, nil
}

func (fq *fakeQueue) Remove(ctx context.Context, reportID string) error {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	for i, report := range fq.reports {
		if report.ReportID == reportID {
			fq.reports = append(fq.reports[:i], fq.reports[i+1:]...)
			return nil
		}
	}
	return nil
}

func (fq *fakeQueue) size() int {
	fq.mu.Lock()
	defer fq.mu.Unlock()
	return len(fq.reports)
}

type fakePush struct {
	mu       sync.Mutex
	segments []models.SegmentFilter
	direct   []string
}

func (fp *fakePush) SendToSegment(ctx context.Context, filter models.SegmentFilter, payload models.PushPayload) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.segments = append(fp.segments, filter)
	return nil
}

func (fp *fakePush) SendToExternalID(ctx context.Context, externalID string, payload models.PushPayload) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.direct = append(fp.direct, externalID)
	return nil
}

type fakeSMS struct {
	mu       sync.Mutex
	sent     map[string][]string
	failNums map[string]bool
	failAll  bool
}

func newFakeSMS() *fakeSMS {
	return &fakeSMS{sent: map[string][]string{}, failNums: map[string]bool{}}
}

func (fs *fakeSMS) Send(ctx context.Context, phoneNumber, body string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failAll || fs.failNums[phoneNumber] {
		return errors.New("carrier rejected")
	}
	fs.sent[phoneNumber] = append(fs.sent[phoneNumber], body)
	return nil
}

type fakePlaces struct {
	services []models.EmergencyService
	err      error
}

func (fp *fakePlaces) FindNearby(ctx context.Context, category string, lat, lng float64, radiusMeters, limit int) ([]models.EmergencyService, error) {
	if fp.err != nil {
		return nil, fp.err
	}
	return fp.services, nil
}

type fakeLocation struct {
	fix *models.LocationFix
}

func (fl *fakeLocation) GetCurrentLocation(ctx context.Context, userID string, timeout time.Duration) (*models.LocationFix, error) {
	if fl.fix == nil {
		return nil, errors.New("no fix")
	}
	return fl.fix, nil
}

func (fl *fakeLocation) GetLastKnown(ctx context.Context, userID string) (*models.LocationFix, error) {
	return fl.fix, nil
}

type fakeGeocoder struct {
	address *models.ResolvedAddress
}

func (fg *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.ResolvedAddress, error) {
	if fg.address == nil {
		return nil, errors.New("no address")
	}
	return fg.address, nil
}

type fakeDevice struct {
	online bool
}

func (fd *fakeDevice) Snapshot() models.DeviceSnapshot {
	return models.DeviceSnapshot{NetworkType: "wifi"}
}

func (fd *fakeDevice) IsOnline(ctx context.Context) bool {
	return fd.online
}

type fakeSession struct {
	user     *models.UserSnapshot
	contacts []models.EmergencyContact
}

func (fs *fakeSession) CurrentUser(ctx context.Context, userID string) (*models.UserSnapshot, error) {
	if fs.user == nil {
		return nil, errors.New("no user")
	}
	return fs.user, nil
}

func (fs *fakeSession) EmergencyContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	return fs.contacts, nil
}
