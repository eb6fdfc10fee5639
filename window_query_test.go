package rowsgroup

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_WindowQuery_WithMethods_And_SortDedup(t *testing.T) {
	q := (*WindowQuery)(nil)
	q = q.WithPaging(NewPaging(20, 10)).
		WithSearch("north").
		WithSubstitutedSort(
			OrderBy{Column: "id", Direction: DirectionASC},
		).
		WithSort(
			OrderBy{Column: "id", Direction: DirectionDESC},
			OrderBy{Column: "created_at", Direction: DirectionASC},
		)

	require.Equal(t, "north", q.GetSearch())
	require.Equal(t, 20, q.GetPaging().GetStart())
	require.Equal(
		t,
		Orderings(
			[]OrderBy{
				{Column: "id", Direction: DirectionDESC},
				{Column: "created_at", Direction: DirectionASC},
			},
		),
		q.GetSort(),
	)

	q = q.WithSubstitutedSort(OrderBy{Column: "region", Direction: DirectionASC})
	require.Equal(t, Orderings{{Column: "region", Direction: DirectionASC}}, q.GetSort())
}

func Test_WindowQuery_Getters_On_Nil(t *testing.T) {
	var q *WindowQuery

	assert.Nil(t, q.GetSort())
	assert.Empty(t, q.GetSearch())
	assert.Nil(t, q.GetSeek())
	assert.Equal(t, DefaultPageLength, q.GetPaging().GetLength())
	assert.Equal(t, new(WindowQuery), q.Clone())
}

func Test_WindowQuery_Clone(t *testing.T) {
	q := NewWindowQuery().
		WithSubstitutedSort(OrderBy{Column: "id", Direction: DirectionASC}).
		WithPaging(NewPaging(10, 10))

	clone := q.Clone()
	clone.GetSort()[0].Direction = DirectionDESC
	clone.GetPaging().WithStart(50)

	assert.Equal(t, DirectionASC, q.GetSort()[0].Direction)
	assert.Equal(t, 10, q.GetPaging().GetStart())
}

func Test_WindowQuery_validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *WindowQuery
		wantErr bool
	}{
		{
			name: "standard case, ok",
			query: &WindowQuery{
				paging: NewPaging(0, 10),
				seek:   NewSeekCursor(SeekElement{Column: "id", Value: 1, Operator: OperatorGT}),
				sort: Orderings([]OrderBy{{
					Column:    "id",
					Direction: DirectionASC,
				}}),
			},
			wantErr: false,
		},
		{
			name:    "no sort and no seek is fine",
			query:   &WindowQuery{},
			wantErr: false,
		},
		{
			name: "sort list should contain the same elements as the seek cursor",
			query: &WindowQuery{
				seek: NewSeekCursor(SeekElement{Column: "id", Value: 1, Operator: OperatorGT}),
				sort: Orderings([]OrderBy{{
					Column:    "name",
					Direction: DirectionASC,
				}}),
			},
			wantErr: true,
		},
		{
			name: "sort list should contain all elements from the seek cursor",
			query: &WindowQuery{
				seek: NewSeekCursor(
					SeekElement{Column: "id", Value: 1, Operator: OperatorGT},
					SeekElement{Column: "surname", Value: "lol", Operator: OperatorGT},
				),
				sort: Orderings([]OrderBy{
					{
						Column:    "id",
						Direction: DirectionASC,
					},
					{
						Column:    "name",
						Direction: DirectionASC,
					},
				}),
			},
			wantErr: true,
		},
		{
			name: "unsuitable sort direction for operator",
			query: &WindowQuery{
				seek: NewSeekCursor(SeekElement{Column: "id", Value: 1, Operator: OperatorLT}),
				sort: Orderings([]OrderBy{
					{
						Column:    "id",
						Direction: DirectionASC,
					},
				}),
			},
			wantErr: true,
		},
		{
			name:    "nil query is invalid",
			query:   (*WindowQuery)(nil),
			wantErr: true,
		},
		{
			name: "seek cursor with no sort is invalid",
			query: &WindowQuery{
				seek: NewSeekCursor(SeekElement{Column: "id", Value: 1, Operator: OperatorLT}),
			},
			wantErr: true,
		},
		{
			name: "invalid sort direction",
			query: &WindowQuery{
				sort: Orderings{{Column: "id", Direction: "sideways"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.query.validate(); (gotErr != nil) != tt.wantErr {
				t.Errorf("%s: got error = %v, want error = %v", tt.name, gotErr, tt.wantErr)
			}
		})
	}
}

func Test_WindowQuery_Paginate_Offset(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tOffice struct {
		ID     uint
		Region string
	}

	tests := []struct {
		name          string
		paging        *Paging
		orderings     Orderings
		expectedQuery string
	}{
		{
			name:          "basic pagination with limit and offset",
			paging:        NewPaging(5, 3),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = ['\"]North['\"] ORDER BY id ASC LIMIT 3 OFFSET 5$",
		},
		{
			name:   "grouping order first",
			paging: NewPaging(0, 5),
			orderings: Orderings{
				{Column: "region", Direction: DirectionASC},
				{Column: "city", Direction: DirectionDESC},
				{Column: "id", Direction: DirectionASC},
			},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] ORDER BY region ASC, city DESC, id ASC LIMIT 5$",
		},
		{
			name:          "pagination with nil paging",
			paging:        nil,
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] ORDER BY id ASC LIMIT 10$",
		},
		{
			name:          "source order, all rows",
			paging:        NewPaging(0, AllRows),
			orderings:     nil,
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"]$",
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				dbMock.ExpectQuery(tt.expectedQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id", "region"}).AddRow(1, "North"))

				q := NewWindowQuery().
					WithPaging(tt.paging).
					WithSubstitutedSort(tt.orderings...)

				paged, err := q.Paginate(db.Select("*").Table("offices").Where("region = 'North'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tOffice{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_WindowQuery_Paginate_Seek(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	type tOffice struct {
		ID     uint
		Region string
	}

	tests := []struct {
		name          string
		length        int
		seek          *SeekCursor
		orderings     Orderings
		expectedQuery string
		expectedArgs  []driver.Value
	}{
		{
			name:          "seek replaces the offset",
			length:        3,
			seek:          NewSeekCursor(SeekElement{Column: "id", Value: 5, Operator: OperatorGT}),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] AND id > (?:\\$\\d|\\?) ORDER BY id ASC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
		},
		{
			name:   "seek with multiple elements",
			length: 5,
			seek: NewSeekCursor(
				SeekElement{Column: "id", Value: 10, Operator: OperatorGT},
				SeekElement{Column: "created_at", Value: "2023-01-01", Operator: OperatorGT},
			),
			orderings: Orderings{
				{Column: "id", Direction: DirectionASC},
				{Column: "created_at", Direction: DirectionASC},
			},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] AND \\(id > (?:\\$\\d|\\?) OR \\(id = (?:\\$\\d|\\?) AND created_at > (?:\\$\\d|\\?)\\)\\) ORDER BY id ASC, created_at ASC LIMIT 5$",
			expectedArgs:  []driver.Value{10, 10, "2023-01-01"},
		},
		{
			name:          "empty seek falls back to the offset",
			length:        10,
			seek:          NewSeekCursor(),
			orderings:     Orderings{{Column: "id", Direction: DirectionASC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] ORDER BY id ASC LIMIT 10 OFFSET 20$",
		},
		{
			name:          "seek with DESC ordering",
			length:        3,
			seek:          NewSeekCursor(SeekElement{Column: "id", Value: 5, Operator: OperatorLT}),
			orderings:     Orderings{{Column: "id", Direction: DirectionDESC}},
			expectedQuery: "^SELECT \\* FROM [`'\"]offices[`'\"] WHERE region = [`'\"]North[`'\"] AND id < (?:\\$\\d|\\?) ORDER BY id DESC LIMIT 3$",
			expectedArgs:  []driver.Value{5},
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				expectation := dbMock.ExpectQuery(tt.expectedQuery)
				if len(tt.expectedArgs) > 0 {
					expectation = expectation.WithArgs(tt.expectedArgs...)
				}
				expectation.WillReturnRows(sqlmock.NewRows([]string{"id", "region"}).AddRow(6, "North"))

				q := NewWindowQuery().
					WithPaging(NewPaging(20, tt.length)).
					WithSeek(tt.seek).
					WithSubstitutedSort(tt.orderings...)

				paged, err := q.Paginate(db.Select("*").Table("offices").Where("region = 'North'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tOffice{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_WindowQuery_Paginate_Invalid(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	q := NewWindowQuery().WithSubstitutedSort(OrderBy{Column: "id; --", Direction: DirectionASC})
	_, err = q.Paginate(db.Table("offices"))
	require.Error(t, err)
}
