package service

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/repository"
)

// Map-backed repository fakes. They reproduce the contracts the services
// rely on (duplicate detection, conditional-update guards, sort order) so
// the tests exercise real service logic without a database.

type mockUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email != "" {
		for _, u := range m.users {
			if u.Email == user.Email {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	m.users[id] = &stored
	return id, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByActivationCode(_ context.Context, code string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ActivationCode == code {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) Activate(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.IsActive {
		return repository.ErrStaleState
	}
	u.IsActive = true
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) AddPatientIDToDoctor(_ context.Context, doctorID, patientID primitive.ObjectID) error {
	d, ok := m.users[doctorID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range d.PatientIDs {
		if id == patientID {
			return nil
		}
	}
	d.PatientIDs = append(d.PatientIDs, patientID)
	return nil
}

func (m *mockUserRepo) AddDoctorIDToPatient(_ context.Context, patientID, doctorID primitive.ObjectID) error {
	p, ok := m.users[patientID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range p.DoctorIDs {
		if id == doctorID {
			return nil
		}
	}
	p.DoctorIDs = append(p.DoctorIDs, doctorID)
	return nil
}

func (m *mockUserRepo) GetPatientsByDoctorID(_ context.Context, doctorID primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if u.IsPatient() && u.ManagedBy(doctorID) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type mockTaskRepo struct {
	tasks map[primitive.ObjectID]*domain.Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[primitive.ObjectID]*domain.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *domain.Task) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *task
	stored.ID = id
	m.tasks[id] = &stored
	return id, nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

func (m *mockTaskRepo) List(_ context.Context) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTaskRepo) SetAttachment(_ context.Context, id, uploadID primitive.ObjectID) error {
	t, ok := m.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.AttachmentID = &uploadID
	return nil
}

type mockMealRepo struct {
	meals map[primitive.ObjectID]*domain.Meal
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{meals: make(map[primitive.ObjectID]*domain.Meal)}
}

func (m *mockMealRepo) Create(_ context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *meal
	stored.ID = id
	m.meals[id] = &stored
	return id, nil
}

func (m *mockMealRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	meal, ok := m.meals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *meal
	return &copy, nil
}

func (m *mockMealRepo) List(_ context.Context) ([]domain.Meal, error) {
	var out []domain.Meal
	for _, meal := range m.meals {
		out = append(out, *meal)
	}
	return out, nil
}

func (m *mockMealRepo) SetAttachment(_ context.Context, id, uploadID primitive.ObjectID) error {
	meal, ok := m.meals[id]
	if !ok {
		return repository.ErrNotFound
	}
	meal.AttachmentID = &uploadID
	return nil
}

type mockConstraintRepo struct {
	constraints map[primitive.ObjectID]*domain.ConstraintType
}

func newMockConstraintRepo() *mockConstraintRepo {
	return &mockConstraintRepo{constraints: make(map[primitive.ObjectID]*domain.ConstraintType)}
}

func (m *mockConstraintRepo) Create(_ context.Context, ct *domain.ConstraintType) (primitive.ObjectID, error) {
	for _, c := range m.constraints {
		if c.Name == ct.Name {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	stored := *ct
	stored.ID = id
	m.constraints[id] = &stored
	return id, nil
}

func (m *mockConstraintRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ConstraintType, error) {
	ct, ok := m.constraints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ct
	return &copy, nil
}

func (m *mockConstraintRepo) List(_ context.Context) ([]domain.ConstraintType, error) {
	var out []domain.ConstraintType
	for _, ct := range m.constraints {
		out = append(out, *ct)
	}
	return out, nil
}

type mockTemplateRepo struct {
	templates map[primitive.ObjectID]*domain.ScheduleTemplate
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[primitive.ObjectID]*domain.ScheduleTemplate)}
}

func (m *mockTemplateRepo) Create(_ context.Context, tmpl *domain.ScheduleTemplate) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *tmpl
	stored.ID = id
	m.templates[id] = &stored
	return id, nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduleTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

func (m *mockTemplateRepo) List(_ context.Context) ([]domain.ScheduleTemplate, error) {
	var out []domain.ScheduleTemplate
	for _, t := range m.templates {
		out = append(out, *t)
	}
	return out, nil
}

type mockPrehabRepo struct {
	prehabs map[primitive.ObjectID]*domain.Prehab
	order   []primitive.ObjectID
}

func newMockPrehabRepo() *mockPrehabRepo {
	return &mockPrehabRepo{prehabs: make(map[primitive.ObjectID]*domain.Prehab)}
}

func (m *mockPrehabRepo) Create(_ context.Context, prehab *domain.Prehab) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *prehab
	stored.ID = id
	if stored.Status == "" {
		stored.Status = domain.PrehabPending
	}
	stored.CreatedAt = time.Now().UTC()
	m.prehabs[id] = &stored
	m.order = append(m.order, id)
	return id, nil
}

func (m *mockPrehabRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Prehab, error) {
	p, ok := m.prehabs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *mockPrehabRepo) GetCurrentByPatientID(_ context.Context, patientID primitive.ObjectID) (*domain.Prehab, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.prehabs[m.order[i]]
		if p.PatientID == patientID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockPrehabRepo) ListByDoctorID(_ context.Context, doctorID primitive.ObjectID) ([]domain.Prehab, error) {
	var out []domain.Prehab
	for _, id := range m.order {
		if m.prehabs[id].CreatedBy == doctorID {
			out = append(out, *m.prehabs[id])
		}
	}
	return out, nil
}

func (m *mockPrehabRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.PrehabStatus) error {
	p, ok := m.prehabs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != from {
		return repository.ErrStaleState
	}
	p.Status = to
	return nil
}

type mockItemRepo struct {
	items map[primitive.ObjectID]*domain.ScheduledItem
	// markDoneErr overrides the next MarkDone result to simulate a lost
	// write race the read guard did not catch.
	markDoneErr error
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[primitive.ObjectID]*domain.ScheduledItem)}
}

func (m *mockItemRepo) CreateBulk(_ context.Context, items []domain.ScheduledItem) error {
	for i := range items {
		id := primitive.NewObjectID()
		stored := items[i]
		stored.ID = id
		if stored.Status == "" {
			stored.Status = domain.ItemPending
		}
		m.items[id] = &stored
	}
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduledItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *item
	return &copy, nil
}

func (m *mockItemRepo) ListByPrehabID(_ context.Context, prehabID primitive.ObjectID) ([]domain.ScheduledItem, error) {
	var out []domain.ScheduledItem
	for _, item := range m.items {
		if item.PrehabID == prehabID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}

func (m *mockItemRepo) ListAll(_ context.Context) ([]domain.ScheduledItem, error) {
	var out []domain.ScheduledItem
	for _, item := range m.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}

func (m *mockItemRepo) MarkDone(_ context.Context, id primitive.ObjectID, params repository.MarkDoneParams) error {
	if m.markDoneErr != nil {
		return m.markDoneErr
	}
	item, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if item.Status != domain.ItemPending {
		return repository.ErrStaleState
	}
	item.Status = params.Status
	finished := params.FinishedDate
	item.FinishedDate = &finished
	item.WasDifficult = params.WasDifficult
	item.PatientNotes = params.PatientNotes
	item.ActualRepetitions = params.ActualRepetitions
	item.SeenByDoctor = params.SeenByDoctor
	return nil
}

func (m *mockItemRepo) MarkSeen(_ context.Context, id primitive.ObjectID, seen bool, doctorNotes string) error {
	item, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if item.Status != domain.ItemPending {
		return repository.ErrStaleState
	}
	item.SeenByDoctor = seen
	item.DoctorNotes = doctorNotes
	return nil
}

func (m *mockItemRepo) MarkSeenBulk(_ context.Context, prehabID primitive.ObjectID) (int64, error) {
	var n int64
	for _, item := range m.items {
		if item.PrehabID == prehabID {
			item.SeenByDoctor = true
			n++
		}
	}
	return n, nil
}

type mockTxManager struct{}

func (mockTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- shared fixtures ---

func seedUser(repo *mockUserRepo, role domain.Role) *domain.User {
	u := &domain.User{
		Name:     string(role) + " user",
		Email:    string(role) + "-" + primitive.NewObjectID().Hex() + "@example.com",
		Role:     role,
		IsActive: true,
	}
	id, _ := repo.Create(context.Background(), u)
	u.ID = id
	return u
}

func seedPatientOf(repo *mockUserRepo, doctor *domain.User) *domain.User {
	p := &domain.User{
		Name:     "patient",
		Email:    "patient-" + primitive.NewObjectID().Hex() + "@example.com",
		Role:     domain.RolePatient,
		IsActive: true,
	}
	id, _ := repo.Create(context.Background(), p)
	p.ID = id
	_ = repo.AddDoctorIDToPatient(context.Background(), id, doctor.ID)
	_ = repo.AddPatientIDToDoctor(context.Background(), doctor.ID, id)
	p.DoctorIDs = []primitive.ObjectID{doctor.ID}
	return p
}
