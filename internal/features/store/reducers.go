package store

import (
	"fmt"

	"go-dashboard/internal/models"
)

func init() {
	reducers[MetaSet] = func(s *State, a Action) error {
		p, err := payloadOf[MetaState](a)
		if err != nil {
			return err
		}
		s.Meta = p
		return nil
	}
	reducers[MetaSetTitle] = func(s *State, a Action) error {
		p, err := payloadOf[SetTitle](a)
		if err != nil {
			return err
		}
		s.Meta.Title = p.Title
		return nil
	}
	reducers[MetaSetSaved] = func(s *State, a Action) error {
		p, err := payloadOf[SetSaved](a)
		if err != nil {
			return err
		}
		s.Meta.Identity = p.Identity
		s.Meta.UpdatedAt = p.UpdatedAt
		return nil
	}

	reducers[DateFilterConfigSet] = func(s *State, a Action) error {
		p, err := payloadOf[SetDateFilterConfig](a)
		if err != nil {
			return err
		}
		effective, valid := models.MergeDateFilterConfig(p.Workspace, p.Override)
		s.DateFilterConfig = DateFilterConfigState{
			Workspace: p.Workspace,
			Override:  p.Override,
			Effective: effective,
			Valid:     valid,
		}
		return nil
	}

	reducers[CatalogSet] = func(s *State, a Action) error {
		p, err := payloadOf[SetCatalog](a)
		if err != nil {
			return err
		}
		s.Catalog = CatalogState{Catalog: p.Catalog, LoadedAt: p.LoadedAt}
		return nil
	}

	reducers[InsightsUpsert] = func(s *State, a Action) error {
		p, err := payloadOf[UpsertInsights](a)
		if err != nil {
			return err
		}
		for _, insight := range p.Insights {
			s.Insights.ByKey[InsightKey(insight)] = insight
		}
		return nil
	}

	reducers[AlertsSet] = func(s *State, a Action) error {
		p, err := payloadOf[SetAutomations](a)
		if err != nil {
			return err
		}
		s.Alerts.Items = p.Items
		if s.Alerts.Items == nil {
			s.Alerts.Items = []models.Automation{}
		}
		return nil
	}
	reducers[AlertsAdd] = func(s *State, a Action) error {
		p, err := payloadOf[PutAutomation](a)
		if err != nil {
			return err
		}
		s.Alerts.Items = append(s.Alerts.Items, p.Automation)
		return nil
	}
	reducers[AlertsUpdate] = func(s *State, a Action) error {
		p, err := payloadOf[PutAutomation](a)
		if err != nil {
			return err
		}
		for i, item := range s.Alerts.Items {
			if item.Identity == p.Automation.Identity {
				s.Alerts.Items[i] = p.Automation
				return nil
			}
		}
		return fmt.Errorf("automation %s not found", p.Automation.Identifier)
	}
	reducers[AlertsRemove] = func(s *State, a Action) error {
		p, err := payloadOf[RemoveAutomations](a)
		if err != nil {
			return err
		}
		items := make([]models.Automation, 0, len(s.Alerts.Items))
	next:
		for _, item := range s.Alerts.Items {
			for _, id := range p.Identities {
				if item.Identity == id {
					continue next
				}
			}
			items = append(items, item)
		}
		s.Alerts.Items = items
		return nil
	}

	reducers[UISetInvalidDrills] = func(s *State, a Action) error {
		p, err := payloadOf[SetInvalidDrills](a)
		if err != nil {
			return err
		}
		if len(p.Drills) == 0 {
			delete(s.UI.InvalidDrills, p.Key)
			return nil
		}
		s.UI.InvalidDrills[p.Key] = p.Drills
		return nil
	}
	reducers[UISetInvalidCustomURLArgs] = func(s *State, a Action) error {
		p, err := payloadOf[SetInvalidCustomURLArgs](a)
		if err != nil {
			return err
		}
		if len(p.Params) == 0 {
			delete(s.UI.InvalidCustomURLDrillArgs, p.Key)
			return nil
		}
		s.UI.InvalidCustomURLDrillArgs[p.Key] = p.Params
		return nil
	}
	reducers[UIClearWidget] = func(s *State, a Action) error {
		p, err := payloadOf[ClearWidget](a)
		if err != nil {
			return err
		}
		delete(s.UI.InvalidDrills, p.Key)
		delete(s.UI.InvalidCustomURLDrillArgs, p.Key)
		return nil
	}
	reducers[UISetLoading] = func(s *State, a Action) error {
		p, err := payloadOf[SetLoading](a)
		if err != nil {
			return err
		}
		if p.Loading {
			s.UI.Loading[p.Name] = true
		} else {
			delete(s.UI.Loading, p.Name)
		}
		return nil
	}

	reducers[PersistedSet] = func(s *State, a Action) error {
		p, err := payloadOf[SetPersisted](a)
		if err != nil {
			return err
		}
		s.Persisted = p.Dashboard
		return nil
	}
}
