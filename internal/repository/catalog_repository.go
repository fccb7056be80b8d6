package repository

import (
	"pmp_prep_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository reads the domain/task/question reference data. The exam
// engine never writes through it.
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) ListDomains() ([]model.Domain, error) {
	var domains []model.Domain
	err := r.DB.Order("display_order asc, id asc").Find(&domains).Error
	return domains, err
}

func (r *CatalogRepository) ListTasks() ([]model.Task, error) {
	var tasks []model.Task
	err := r.DB.Order("domain_id asc, `order` asc").Find(&tasks).Error
	return tasks, err
}

func (r *CatalogRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *CatalogRepository) ListQuestionsByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

// QuestionPoolsByDomain loads every question grouped by its domain through the
// question -> task -> domain chain, as one explicit join instead of per-row
// lazy loads.
func (r *CatalogRepository) QuestionPoolsByDomain() (map[uint][]model.Question, error) {
	type row struct {
		model.Question
		DomainID uint `gorm:"column:domain_id"`
	}
	var rows []row
	err := r.DB.Table("questions").
		Select("questions.*, tasks.domain_id as domain_id").
		Joins("JOIN tasks ON tasks.id = questions.task_id AND tasks.deleted_at IS NULL").
		Where("questions.deleted_at IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	pools := make(map[uint][]model.Question)
	for _, r := range rows {
		pools[r.DomainID] = append(pools[r.DomainID], r.Question)
	}
	return pools, nil
}

// Lookups bundles the read-once reference caches used by the report builder
// and the session question listing.
type Lookups struct {
	Questions map[uint]model.Question
	Tasks     map[uint]model.Task
	Domains   map[uint]model.Domain
}

// LoadLookups reads domains, tasks and the given questions once and returns
// them as lookup maps.
func (r *CatalogRepository) LoadLookups(questionIDs []uint) (*Lookups, error) {
	domains, err := r.ListDomains()
	if err != nil {
		return nil, err
	}
	tasks, err := r.ListTasks()
	if err != nil {
		return nil, err
	}
	questions, err := r.ListQuestionsByIDs(questionIDs)
	if err != nil {
		return nil, err
	}

	l := &Lookups{
		Questions: make(map[uint]model.Question, len(questions)),
		Tasks:     make(map[uint]model.Task, len(tasks)),
		Domains:   make(map[uint]model.Domain, len(domains)),
	}
	for _, q := range questions {
		l.Questions[q.ID] = q
	}
	for _, t := range tasks {
		l.Tasks[t.ID] = t
	}
	for _, d := range domains {
		l.Domains[d.ID] = d
	}
	return l, nil
}
