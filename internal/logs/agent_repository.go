package logs

import (
	"context"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type Scope = func(*gorm.DB) *gorm.DB

type AgentRepository interface {
	First(ctx context.Context, scopes ...Scope) (*model.Agent, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.Agent, error)
	Create(ctx context.Context, agent *model.Agent) error
	Updates(ctx context.Context, agent *model.Agent, columns map[string]interface{}) error
	Delete(ctx context.Context, agentID uint) error
}

type agentRepository struct {
	db *gorm.DB
}

func (r *agentRepository) First(ctx context.Context, scopes ...Scope) (*model.Agent, error) {
	var agent model.Agent
	err := r.db.WithContext(ctx).Scopes(scopes...).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) Find(ctx context.Context, scopes ...Scope) ([]*model.Agent, error) {
	var agents []*model.Agent
	err := r.db.WithContext(ctx).Model(&model.Agent{}).Scopes(scopes...).Find(&agents).Error
	return agents, err
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) error {
	return r.db.WithContext(ctx).Omit("User").Create(agent).Error
}

func (r *agentRepository) Updates(ctx context.Context, agent *model.Agent, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(agent).Omit("User").Updates(columns).Error
}

// Delete removes the agent and detaches the events it reported.
func (r *agentRepository) Delete(ctx context.Context, agentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Event{}).Where("agent_id = ?", agentID).Update("agent_id", nil).Error; err != nil {
			return err
		}
		ret := tx.Delete(&model.Agent{}, agentID)
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db}
}
