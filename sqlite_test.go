package keyset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type tAuthor struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func (tAuthor) TableName() string { return "authors" }

type tReply struct {
	ID          uint `gorm:"primaryKey"`
	AuthorID    uint
	Author      tAuthor
	LikesCount  int
	CreatedYear int
	CreatedAt   time.Time
}

func (tReply) TableName() string { return "replies" }

func newReplyDB(t *testing.T, replies ...tReply) *gorm.DB {
	t.Helper()

	db := newGORMSQLite(t)
	require.NoError(t, db.AutoMigrate(&tAuthor{}, &tReply{}))
	require.NoError(t, db.Create(&tAuthor{ID: 1, Name: "alice"}).Error)

	for i := range replies {
		replies[i].AuthorID = 1
	}
	require.NoError(t, db.Create(&replies).Error)

	return db
}

func newTenReplies(t *testing.T) *gorm.DB {
	return newReplyDB(t, make([]tReply, 10)...)
}

func newYearReplies(t *testing.T, years ...int) *gorm.DB {
	replies := make([]tReply, 0, len(years))
	for _, year := range years {
		replies = append(replies, tReply{CreatedYear: year, CreatedAt: yearStart(year)})
	}

	return newReplyDB(t, replies...)
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func replyIDs(rows []tReply) []uint {
	ret := make([]uint, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.ID)
	}

	return ret
}

func Test_SQLite_Before(t *testing.T) {
	db := newTenReplies(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  *gorm.DB
		cursor int
		want   []uint
	}{
		{"asc middle", db.Model(&tReply{}).Order("id"), 5, []uint{3, 4}},
		{"asc first row", db.Model(&tReply{}).Order("id"), 1, []uint{}},
		{"asc second row", db.Model(&tReply{}).Order("id"), 2, []uint{1}},
		{"asc last row", db.Model(&tReply{}).Order("id"), 10, []uint{8, 9}},
		{"asc beyond range", db.Model(&tReply{}).Order("id"), 99, []uint{9, 10}},
		{"desc middle", db.Model(&tReply{}).Order("id desc"), 5, []uint{7, 6}},
		{"desc first row", db.Model(&tReply{}).Order("id desc"), 10, []uint{}},
		{"desc beyond range", db.Model(&tReply{}).Order("id desc"), -99, []uint{2, 1}},
		{"filtered asc", db.Model(&tReply{}).Where("id IN ?", []int{2, 4, 6, 8, 10}).Order("id"), 6, []uint{2, 4}},
		{"filtered desc", db.Model(&tReply{}).Where("id IN ?", []int{2, 4, 6, 8, 10}).Order("id desc"), 6, []uint{10, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindPage[tReply](ctx, QueryBefore(FromGORM(tt.query), 2), Scalar(tt.cursor))
			require.NoError(t, err)
			require.Equal(t, tt.want, replyIDs(got))
		})
	}
}

func Test_SQLite_PageBounds(t *testing.T) {
	db := newTenReplies(t)
	q := FromGORM(db.Model(&tReply{}).Order("id"))

	for cursor := 1; cursor <= 10; cursor++ {
		before, err := FindPage[tReply](context.Background(), QueryBefore(q, 20), Scalar(cursor))
		require.NoError(t, err)
		require.Len(t, before, cursor-1)
		require.NotContains(t, replyIDs(before), uint(cursor))

		after, err := FindPage[tReply](context.Background(), QueryAfter(q, 20), Scalar(cursor))
		require.NoError(t, err)
		require.Len(t, after, 10-cursor)
		require.NotContains(t, replyIDs(after), uint(cursor))
	}
}

func Test_SQLite_QueryBuilder(t *testing.T) {
	db := newTenReplies(t)

	type row struct {
		ID uint
	}

	got, err := FindPage[row](context.Background(), QueryBefore(FromGORM(db.Table("replies").Select("id").Order("id desc")), 2), Scalar(5))
	require.NoError(t, err)
	require.Equal(t, []row{{ID: 7}, {ID: 6}}, got)
}

func Test_SQLite_TupleCursor(t *testing.T) {
	replies := make([]tReply, 0, 12)
	for _, likes := range []int{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4} {
		replies = append(replies, tReply{LikesCount: likes})
	}
	db := newReplyDB(t, replies...)
	q := FromGORM(db.Model(&tReply{}).Order("likes_count").Order("id desc"))

	got, err := FindPage[tReply](context.Background(), QueryBefore(q, 3), Tuple(4, 8))
	require.NoError(t, err)
	require.Equal(t, []uint{7, 3, 12}, replyIDs(got))

	got, err = FindPage[tReply](context.Background(), QueryAfter(q, 3), Tuple(2, 2))
	require.NoError(t, err)
	require.Equal(t, []uint{11, 7, 3}, replyIDs(got))
}

func Test_SQLite_MultipleColumns(t *testing.T) {
	replies := make([]tReply, 0, 6)
	for _, year := range []int{2004, 2003, 2003, 2001, 2003, 2004} {
		replies = append(replies, tReply{CreatedYear: year})
	}
	db := newReplyDB(t, replies...)

	got, err := FindPage[tReply](context.Background(),
		QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_year").Order("id desc")), 3),
		Tuple(2005, 0),
	)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 6, 1}, replyIDs(got))

	got, err = FindPage[tReply](context.Background(),
		QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_year desc").Order("id")), 3),
		Tuple(2002, 0),
	)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 3, 5}, replyIDs(got))
}

func Test_SQLite_ComputedColumn(t *testing.T) {
	replies := make([]tReply, 0, 7)
	for _, year := range []int{2006, 2004, 2008, 2010, 2002, 2009, 2011} {
		replies = append(replies, tReply{CreatedYear: year})
	}
	db := newReplyDB(t, replies...)

	type row struct {
		ID uint
		YY int `gorm:"column:yy"`
	}

	// SQLite resolves result aliases in WHERE, so the alias is compared
	// exactly as it is ordered by.
	q := FromGORM(db.Table("replies").Select("id, created_year - 2000 AS yy").Order("yy"))

	got, err := FindPage[row](context.Background(), QueryBefore(q, 2), Scalar(8))
	require.NoError(t, err)
	require.Equal(t, []row{{ID: 2, YY: 4}, {ID: 1, YY: 6}}, got)
}

func Test_SQLite_EagerLoading(t *testing.T) {
	db := newTenReplies(t)

	got, err := FindPage[tReply](context.Background(), QueryBefore(FromGORM(db.Model(&tReply{}).Preload("Author").Order("id")), 1), Scalar(5))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint(4), got[0].ID)
	require.Equal(t, "alice", got[0].Author.Name)
}

func Test_SQLite_DoesNotMutateOriginal(t *testing.T) {
	db := newTenReplies(t)

	original := db.Model(&tReply{}).Where("likes_count >= ?", 0).Order("id")
	originalSQL := renderSQL(original)

	paged, err := QueryBefore(FromGORM(original), 2).Process(Scalar(2))
	require.NoError(t, err)
	require.Equal(t, originalSQL, renderSQL(original))
	require.NotEqual(t, originalSQL, renderSQL(paged.DB()))

	var all []tReply
	require.NoError(t, original.Find(&all).Error)
	require.Len(t, all, 10)
}

func Test_SQLite_NoOrder(t *testing.T) {
	db := newTenReplies(t)

	for _, mode := range []Mode{ModeBefore, ModeAfter} {
		_, err := FindPage[tReply](context.Background(), NewStrategy(FromGORM(db.Model(&tReply{})), mode, 2), Scalar(5))
		require.ErrorIs(t, err, ErrNoOrderDefined)
	}
}

func Test_SQLite_OrFilters(t *testing.T) {
	db := newTenReplies(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  *gorm.DB
		mode   Mode
		cursor int
		want   []uint
	}{
		{"where or, after", db.Model(&tReply{}).Where("id = ?", 1).Or("id = ?", 9).Order("id"), ModeAfter, 5, []uint{9}},
		{"where or, before", db.Model(&tReply{}).Where("id = ?", 1).Or("id = ?", 9).Order("id"), ModeBefore, 5, []uint{1}},
		{"or then where, after", db.Model(&tReply{}).Or("id = ?", 9).Where("id = ?", 2).Order("id"), ModeAfter, 5, []uint{9}},
		{"single or, before", db.Model(&tReply{}).Or("id = 3 OR id = 7").Order("id"), ModeBefore, 5, []uint{3}},
		{"filter and or, after", db.Model(&tReply{}).Where("likes_count = ?", 0).Where("id < ?", 3).Or("id > ?", 8).Order("id desc"), ModeAfter, 5, []uint{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindPage[tReply](ctx, NewStrategy(FromGORM(tt.query), tt.mode, 5), Scalar(tt.cursor))
			require.NoError(t, err)
			require.Equal(t, tt.want, replyIDs(got))
		})
	}
}

func Test_SQLite_OrFiltersGrouped(t *testing.T) {
	db := newTenReplies(t)
	original := db.Model(&tReply{}).Where("id = ?", 1).Or("id = ?", 9).Order("id")
	originalSQL := renderSQL(original)

	paged, err := QueryAfter(FromGORM(original), 5).Process(Scalar(5))
	require.NoError(t, err)
	require.Contains(t, renderSQL(paged.DB()), "WHERE (id = 1 OR id = 9) AND id > 5 ORDER BY id ASC LIMIT 5")
	require.Equal(t, originalSQL, renderSQL(original))
}

func Test_SQLite_TimeColumn(t *testing.T) {
	db := newYearReplies(t, 2006, 2004, 2008, 2010, 2002, 2009, 2011)
	cursor := Scalar(yearStart(2008))

	years := func(t *testing.T, s *Strategy[*GormQuery]) []int {
		got, err := FindPage[tReply](context.Background(), s, cursor)
		require.NoError(t, err)

		ret := make([]int, 0, len(got))
		for _, row := range got {
			ret = append(ret, row.CreatedAt.Year())
		}

		return ret
	}

	require.Equal(t, []int{2004, 2006}, years(t, QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_at")), 2)))
	require.Equal(t, []int{2010, 2009}, years(t, QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_at desc")), 2)))
	require.Equal(t, []int{2009, 2010}, years(t, QueryAfter(FromGORM(db.Model(&tReply{}).Order("created_at")), 2)))
}

func Test_SQLite_TimeMultipleColumns(t *testing.T) {
	db := newYearReplies(t, 2004, 2003, 2003, 2001, 2003, 2004)

	got, err := FindPage[tReply](context.Background(),
		QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_at").Order("id desc")), 3),
		Tuple(yearStart(2005), 0),
	)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 6, 1}, replyIDs(got))

	got, err = FindPage[tReply](context.Background(),
		QueryBefore(FromGORM(db.Model(&tReply{}).Order("created_at desc").Order("id")), 3),
		Tuple(yearStart(2002), 0),
	)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 3, 5}, replyIDs(got))

	// Ties on created_at are broken by id.
	got, err = FindPage[tReply](context.Background(),
		QueryAfter(FromGORM(db.Model(&tReply{}).Order("created_at").Order("id desc")), 3),
		Tuple(yearStart(2003), 3),
	)
	require.NoError(t, err)
	require.Equal(t, []uint{2, 6, 1}, replyIDs(got))
}
