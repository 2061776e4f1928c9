package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/ugaemi/tapcoin-server/internal/progress"
)

func encodeList(l progress.List) ([]byte, error) {
	if l == nil {
		l = progress.List{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return data, nil
}

func decodeList(data []byte) (progress.List, error) {
	l := progress.List{}
	if len(data) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if l == nil {
		l = progress.List{}
	}
	return l, nil
}

type encodedLists struct {
	upgrades, tasks, completedTasks []byte
}

func encodeLists(p *progress.PlayerProgress) (encodedLists, error) {
	var (
		out encodedLists
		err error
	)
	if out.upgrades, err = encodeList(p.Upgrades); err != nil {
		return out, err
	}
	if out.tasks, err = encodeList(p.Tasks); err != nil {
		return out, err
	}
	if out.completedTasks, err = encodeList(p.CompletedTasks); err != nil {
		return out, err
	}
	return out, nil
}

func (e encodedLists) decodeInto(p *progress.PlayerProgress) error {
	var err error
	if p.Upgrades, err = decodeList(e.upgrades); err != nil {
		return err
	}
	if p.Tasks, err = decodeList(e.tasks); err != nil {
		return err
	}
	if p.CompletedTasks, err = decodeList(e.completedTasks); err != nil {
		return err
	}
	return nil
}
