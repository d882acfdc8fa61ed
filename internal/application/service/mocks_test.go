package service

import (
	"context"
	"sort"
	"time"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// memStore is an in-memory stand-in for the database. Repositories hand out
// copies, so a service only changes stored state through an explicit write.
type memStore struct {
	nextID     int64
	pengajuan  map[int64]entity.Pengajuan
	items      map[int64][]entity.LineItem
	bast       map[int64]entity.BAST
	kelompok   map[int64]entity.Kelompok
	monitoring map[int64]entity.Monitoring
	history    []entity.ApprovalHistory
}

func newMemStore() *memStore {
	return &memStore{
		pengajuan:  map[int64]entity.Pengajuan{},
		items:      map[int64][]entity.LineItem{},
		bast:       map[int64]entity.BAST{},
		kelompok:   map[int64]entity.Kelompok{},
		monitoring: map[int64]entity.Monitoring{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextID = s.nextID
	for k, v := range s.pengajuan {
		cp.pengajuan[k] = v
	}
	for k, v := range s.items {
		rows := make([]entity.LineItem, len(v))
		for i, item := range v {
			rows[i] = copyItem(item)
		}
		cp.items[k] = rows
	}
	for k, v := range s.bast {
		cp.bast[k] = v
	}
	for k, v := range s.kelompok {
		cp.kelompok[k] = v
	}
	for k, v := range s.monitoring {
		cp.monitoring[k] = v
	}
	cp.history = append(cp.history, s.history...)
	return cp
}

func (s *memStore) restore(from *memStore) {
	*s = *from
}

func copyItem(item entity.LineItem) entity.LineItem {
	if item.JumlahDisetujui != nil {
		qty := *item.JumlahDisetujui
		item.JumlahDisetujui = &qty
	}
	return item
}

// historyActions returns the action types recorded for one entity, oldest first
func (s *memStore) historyActions(kind entity.Kind, id int64) []string {
	var actions []string
	for _, h := range s.history {
		if h.EntityKind == kind && h.EntityID == id {
			actions = append(actions, h.ActionType)
		}
	}
	return actions
}

// seedKelompok stores a cooperative with the given number of members
func (s *memStore) seedKelompok(members int) int64 {
	k := entity.Kelompok{ID: s.id(), Nama: "KUB Mina Bahari", KabKota: "Kab. Cilacap"}
	for i := 0; i < members; i++ {
		k.Anggota = append(k.Anggota, &entity.Anggota{ID: s.id(), KelompokID: k.ID, Nama: "Anggota"})
	}
	s.kelompok[k.ID] = k
	return k.ID
}

// seedPengajuan stores a submission owned by userID in the given stages
func (s *memStore) seedPengajuan(userID int64, admin entity.StatusVerifikasi, kabid entity.StatusKabid, requested ...int) int64 {
	p := entity.Pengajuan{
		ID:                    s.id(),
		KelompokID:            1,
		UserID:                userID,
		JudulUsulan:           "Bantuan alat tangkap",
		Tahun:                 2024,
		StatusVerifikasi:      admin,
		StatusVerifikasiKabid: kabid,
		Version:               1,
	}
	s.pengajuan[p.ID] = p
	for _, qty := range requested {
		s.items[p.ID] = append(s.items[p.ID], entity.LineItem{
			ID:          s.id(),
			PengajuanID: p.ID,
			NamaAlat:    "Jaring",
			JumlahAlat:  qty,
			StatusItem:  entity.ItemPending,
		})
	}
	return p.ID
}

type memPengajuanRepo struct {
	store      *memStore
	updateFunc func(ctx context.Context, p *entity.Pengajuan) error
	onGet      func(ctx context.Context, id int64)
}

func (r *memPengajuanRepo) Create(ctx context.Context, p *entity.Pengajuan) error {
	p.ID = r.store.id()
	p.Version = 1
	p.CreatedAt = time.Now()
	stored := *p
	stored.Items, stored.BAST = nil, nil
	r.store.pengajuan[p.ID] = stored
	return nil
}

func (r *memPengajuanRepo) GetByID(ctx context.Context, id int64) (*entity.Pengajuan, error) {
	if r.onGet != nil {
		r.onGet(ctx, id)
	}
	p, ok := r.store.pengajuan[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPengajuanRepo) List(ctx context.Context, filter port.PengajuanFilter) ([]*entity.Pengajuan, error) {
	var out []*entity.Pengajuan
	for _, p := range r.store.pengajuan {
		p := p
		if filter.UserID != 0 && p.UserID != filter.UserID {
			continue
		}
		if filter.Tahun != 0 && p.Tahun != filter.Tahun {
			continue
		}
		if len(filter.StatusVerifikasi) > 0 && !containsStatus(filter.StatusVerifikasi, p.StatusVerifikasi) {
			continue
		}
		if len(filter.StatusKabid) > 0 && !containsStatus(filter.StatusKabid, p.StatusVerifikasiKabid) {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsStatus[T comparable](list []T, v T) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (r *memPengajuanRepo) Update(ctx context.Context, p *entity.Pengajuan) error {
	if r.updateFunc != nil {
		if err := r.updateFunc(ctx, p); err != nil {
			return err
		}
	}
	stored, ok := r.store.pengajuan[p.ID]
	if !ok {
		return workflow.ErrNotFound
	}
	if stored.Version != p.Version {
		return workflow.ErrVersionConflict
	}
	p.Version++
	cp := *p
	cp.Items, cp.BAST = nil, nil
	r.store.pengajuan[p.ID] = cp
	return nil
}

func (r *memPengajuanRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.store.pengajuan[id]; !ok {
		return workflow.ErrNotFound
	}
	delete(r.store.pengajuan, id)
	delete(r.store.items, id)
	delete(r.store.bast, id)
	return nil
}

type memItemRepo struct {
	store              *memStore
	updateDecisionFunc func(ctx context.Context, item *entity.LineItem) error
}

func (r *memItemRepo) Create(ctx context.Context, item *entity.LineItem) error {
	item.ID = r.store.id()
	r.store.items[item.PengajuanID] = append(r.store.items[item.PengajuanID], copyItem(*item))
	return nil
}

func (r *memItemRepo) GetByPengajuanID(ctx context.Context, pengajuanID int64) ([]*entity.LineItem, error) {
	out := []*entity.LineItem{}
	for _, item := range r.store.items[pengajuanID] {
		cp := copyItem(item)
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memItemRepo) UpdateDecision(ctx context.Context, item *entity.LineItem) error {
	if r.updateDecisionFunc != nil {
		if err := r.updateDecisionFunc(ctx, item); err != nil {
			return err
		}
	}
	rows := r.store.items[item.PengajuanID]
	for i := range rows {
		if rows[i].ID == item.ID {
			rows[i] = copyItem(*item)
			return nil
		}
	}
	return workflow.ErrNotFound
}

func (r *memItemRepo) DeleteByPengajuanID(ctx context.Context, pengajuanID int64) error {
	delete(r.store.items, pengajuanID)
	return nil
}

type memBASTRepo struct {
	store *memStore
}

func (r *memBASTRepo) Upsert(ctx context.Context, bast *entity.BAST) error {
	if existing, ok := r.store.bast[bast.PengajuanID]; ok {
		bast.ID = existing.ID
	} else {
		bast.ID = r.store.id()
	}
	r.store.bast[bast.PengajuanID] = *bast
	return nil
}

func (r *memBASTRepo) GetByPengajuanID(ctx context.Context, pengajuanID int64) (*entity.BAST, error) {
	b, ok := r.store.bast[pengajuanID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type memKelompokRepo struct {
	store      *memStore
	createFunc func(ctx context.Context, k *entity.Kelompok) error
}

func (r *memKelompokRepo) Create(ctx context.Context, k *entity.Kelompok) error {
	if r.createFunc != nil {
		return r.createFunc(ctx, k)
	}
	k.ID = r.store.id()
	for _, a := range k.Anggota {
		a.ID = r.store.id()
		a.KelompokID = k.ID
	}
	r.store.kelompok[k.ID] = *k
	return nil
}

func (r *memKelompokRepo) GetByID(ctx context.Context, id int64) (*entity.Kelompok, error) {
	k, ok := r.store.kelompok[id]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r *memKelompokRepo) List(ctx context.Context, limit, offset int) ([]*entity.Kelompok, error) {
	var out []*entity.Kelompok
	for _, k := range r.store.kelompok {
		k := k
		out = append(out, &k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memKelompokRepo) CountAnggota(ctx context.Context, kelompokID int64) (int, error) {
	return len(r.store.kelompok[kelompokID].Anggota), nil
}

type memMonitoringRepo struct {
	store *memStore
}

func (r *memMonitoringRepo) Create(ctx context.Context, m *entity.Monitoring) error {
	m.ID = r.store.id()
	m.Version = 1
	for _, row := range m.Rows {
		row.ID = r.store.id()
		row.MonitoringID = m.ID
	}
	r.store.monitoring[m.ID] = *m
	return nil
}

func (r *memMonitoringRepo) GetByID(ctx context.Context, id int64) (*entity.Monitoring, error) {
	m, ok := r.store.monitoring[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memMonitoringRepo) List(ctx context.Context, filter port.MonitoringFilter) ([]*entity.Monitoring, error) {
	var out []*entity.Monitoring
	for _, m := range r.store.monitoring {
		m := m
		if filter.UserID != 0 && m.UserID != filter.UserID {
			continue
		}
		if len(filter.Status) > 0 && !containsStatus(filter.Status, m.StatusVerifikasiKabid) {
			continue
		}
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMonitoringRepo) Update(ctx context.Context, m *entity.Monitoring) error {
	stored, ok := r.store.monitoring[m.ID]
	if !ok {
		return workflow.ErrNotFound
	}
	if stored.Version != m.Version {
		return workflow.ErrVersionConflict
	}
	m.Version++
	cp := *m
	cp.Rows = stored.Rows
	r.store.monitoring[m.ID] = cp
	return nil
}

func (r *memMonitoringRepo) ReplaceRows(ctx context.Context, monitoringID int64, rows []*entity.ProduksiRow) error {
	m, ok := r.store.monitoring[monitoringID]
	if !ok {
		return workflow.ErrNotFound
	}
	m.Rows = rows
	r.store.monitoring[monitoringID] = m
	return nil
}

func (r *memMonitoringRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.store.monitoring[id]; !ok {
		return workflow.ErrNotFound
	}
	delete(r.store.monitoring, id)
	return nil
}

type memHistoryRepo struct {
	store      *memStore
	createFunc func(ctx context.Context, history *entity.ApprovalHistory) error
}

func (r *memHistoryRepo) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	if r.createFunc != nil {
		if err := r.createFunc(ctx, history); err != nil {
			return err
		}
	}
	history.ID = r.store.id()
	r.store.history = append(r.store.history, *history)
	return nil
}

func (r *memHistoryRepo) GetByEntity(ctx context.Context, kind entity.Kind, entityID int64) ([]*entity.ApprovalHistory, error) {
	out := []*entity.ApprovalHistory{}
	for _, h := range r.store.history {
		h := h
		if h.EntityKind == kind && h.EntityID == entityID {
			out = append(out, &h)
		}
	}
	return out, nil
}

// memTxManager restores the store when the transaction function fails
type memTxManager struct {
	store     *memStore
	commitErr error
}

type memTxKey struct{}

// inMemTx reports whether ctx was handed out by memTxManager
func inMemTx(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) != nil
}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	before := m.store.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.store.restore(before)
		return err
	}
	if m.commitErr != nil {
		m.store.restore(before)
		return m.commitErr
	}
	return nil
}

type mockFileStorage struct {
	files    map[string][]byte
	saveFunc func(ctx context.Context, path string, content []byte) error
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: map[string][]byte{}}
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, path, content)
	}
	m.files[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.files[path], nil
}

func (m *mockFileStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *mockFileStorage) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

type mockSigner struct {
	verifyFunc func(token string) (string, error)
}

func (m *mockSigner) SignURL(path string, ttl time.Duration) (string, time.Time, error) {
	return "http://files.test/files?token=" + path, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(ttl), nil
}

func (m *mockSigner) Verify(token string) (string, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(token)
	}
	return token, nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// fixture wires every service against one memStore
type fixture struct {
	store      *memStore
	pengajuan  *memPengajuanRepo
	items      *memItemRepo
	history    *memHistoryRepo
	kelompok   *memKelompokRepo
	tx         *memTxManager
	files      *mockFileStorage
	signer     *mockSigner
	svc        PengajuanService
	monitoring MonitoringService
}

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store:     store,
		pengajuan: &memPengajuanRepo{store: store},
		items:     &memItemRepo{store: store},
		history:   &memHistoryRepo{store: store},
		kelompok:  &memKelompokRepo{store: store},
		tx:        &memTxManager{store: store},
		files:     newMockFileStorage(),
		signer:    &mockSigner{},
	}
	f.svc = NewPengajuanService(PengajuanDeps{
		Pengajuan: f.pengajuan,
		Items:     f.items,
		BAST:      &memBASTRepo{store: store},
		Kelompok:  f.kelompok,
		History:   f.history,
		TxManager: f.tx,
		Files:     f.files,
		Signer:    f.signer,
		Logger:    &mockLogger{},
	})
	f.monitoring = NewMonitoringService(&memMonitoringRepo{store: store}, f.kelompok, f.history, f.tx, nil, &mockLogger{})
	return f
}

var (
	owner = entity.Actor{UserID: 7, Role: entity.RoleUser}
	other = entity.Actor{UserID: 8, Role: entity.RoleUser}
	admin = entity.Actor{UserID: 2, Role: entity.RoleAdminKabKota}
	kabid = entity.Actor{UserID: 3, Role: entity.RoleKepalaBidang}
	kadis = entity.Actor{UserID: 4, Role: entity.RoleKepalaDinas}
)
