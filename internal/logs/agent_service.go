package logs

import (
	"context"
	"errors"
	"fmt"

	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentInput carries client supplied agent fields. The Set flags mark
// nullable fields that were present in the request.
type AgentInput struct {
	Name        *string
	Environment *string
	UserID      *uint
	SetUser     bool
	Address     *string
	SetAddress  bool
}

type AgentService struct {
	db        *gorm.DB
	agentRepo AgentRepository
}

func byID(id uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id})
	}
}

// rowExists reports whether a row with the given id exists in the table of model.
func rowExists(ctx context.Context, db *gorm.DB, model interface{}, id uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func checkRelation(ctx context.Context, db *gorm.DB, errs validation.Errors, field string, model interface{}, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := rowExists(ctx, db, model, *id)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add(field, fmt.Sprintf(validation.MsgPKNotFound, *id))
	}
	return nil
}

func (s *AgentService) GetAgentByID(ctx context.Context, agentID uint) (*model.Agent, error) {
	agent, err := s.agentRepo.First(ctx, byID(agentID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAgentNotFound
	}
	return agent, err
}

func (s *AgentService) ListAgents(ctx context.Context, scopes ...Scope) ([]*model.Agent, error) {
	return s.agentRepo.Find(ctx, scopes...)
}

// ValidateAgent checks that the referenced rows exist.
func (s *AgentService) ValidateAgent(ctx context.Context, in AgentInput) (validation.Errors, error) {
	errs := validation.Errors{}
	if in.SetUser {
		if err := checkRelation(ctx, s.db, errs, "user", &model.User{}, in.UserID); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

func (s *AgentService) validate(ctx context.Context, in AgentInput) error {
	errs, err := s.ValidateAgent(ctx, in)
	if err != nil {
		return err
	}
	return errs.Err()
}

func (s *AgentService) CreateAgent(ctx context.Context, in AgentInput) (*model.Agent, error) {
	if in.Name == nil || in.Environment == nil {
		return nil, errors.New("create agent: name and environment are required")
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	agent := &model.Agent{
		Name:        *in.Name,
		Environment: *in.Environment,
		UserID:      in.UserID,
		Address:     in.Address,
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) UpdateAgent(ctx context.Context, agent *model.Agent, in AgentInput) (*model.Agent, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	columns := make(map[string]interface{})
	if in.Name != nil {
		columns["name"] = *in.Name
	}
	if in.Environment != nil {
		columns["environment"] = *in.Environment
	}
	if in.SetUser {
		columns["user_id"] = in.UserID
	}
	if in.SetAddress {
		columns["address"] = in.Address
	}
	if err := s.agentRepo.Updates(ctx, agent, columns); err != nil {
		return nil, err
	}
	return s.GetAgentByID(ctx, agent.ID)
}

func (s *AgentService) DeleteAgent(ctx context.Context, agentID uint) error {
	err := s.agentRepo.Delete(ctx, agentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAgentNotFound
	}
	return err
}

func NewAgentService(db *gorm.DB, agentRepo AgentRepository) *AgentService {
	return &AgentService{
		db:        db,
		agentRepo: agentRepo,
	}
}
