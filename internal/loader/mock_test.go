package loader

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type call struct {
	Query  string
	Params map[string]interface{}
}

type MockDriver struct {
	Calls       []call
	IndexBuilds int
	MockResult  neo4j.EagerResult
	Err         error
	FailAfter   int // fail every call after this many succeed; 0 disables
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Calls = append(m.Calls, call{Query: query, Params: params})
	if m.Err != nil && (m.FailAfter == 0 || len(m.Calls) > m.FailAfter) {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.IndexBuilds++
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}
