package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CompleteFile(t *testing.T) {
	input := strings.Join([]string{
		"account_uuid,kw,task_count,tracker_task_ids,secondary_task_ids",
		`acc-1,"jardinería, paisajismo",2,"t-1, t-2",s-1`,
		"acc-2,fontanería,1,,",
	}, "\n")

	rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "acc-1", rows[0].AccountUUID)
	assert.Equal(t, "jardinería, paisajismo", rows[0].Keywords)
	assert.Equal(t, 2, rows[0].TaskCount)
	assert.Equal(t, []string{"t-1", "t-2"}, rows[0].TrackerTaskIDs)
	assert.Equal(t, []string{"s-1"}, rows[0].SecondaryTaskIDs)

	assert.Equal(t, "acc-2", rows[1].AccountUUID)
	assert.Nil(t, rows[1].TrackerTaskIDs)
}

func TestParse_MissingColumnsListsAll(t *testing.T) {
	input := "account_uuid,notes\nacc-1,whatever\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kw")
	assert.Contains(t, err.Error(), "task_count")
	assert.NotContains(t, err.Error(), "account_uuid")
}

func TestParse_TaskCountFallback(t *testing.T) {
	input := strings.Join([]string{
		"account_uuid,kw,task_count",
		"acc-1,kw1,",
		"acc-2,kw2,abc",
		"acc-3,kw3,0",
		"acc-4,kw4,-2",
		"acc-5,kw5,3",
	}, "\n")

	rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	for _, row := range rows[:4] {
		assert.Equal(t, 1, row.TaskCount, "row %s should fall back to 1", row.AccountUUID)
	}
	assert.Equal(t, 3, rows[4].TaskCount)
}

func TestParse_DropsIncompleteRows(t *testing.T) {
	input := strings.Join([]string{
		"account_uuid,kw,task_count",
		",missing account,1",
		"acc-1,,1",
		"acc-2,valid keywords,1",
	}, "\n")

	rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "acc-2", rows[0].AccountUUID)
}

func TestParse_HeaderCaseAndSpacing(t *testing.T) {
	input := "Account_UUID, KW ,Task_Count\nacc-1,kw,2\n"

	rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TaskCount)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
}
