package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/importer"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

func TestParser_Comma(t *testing.T) {
	csv := `date,type,amount,category,account,remark,tags
2024-03-01,expense,12.50,Dining,Cash,lunch,work|team
2024/3/2,income,"1,200.00",Salary,Bank Card,,

`

	drafts, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, importer.Draft{
		Line:     2,
		Date:     "2024-03-01",
		Type:     record.TypeExpense,
		Amount:   1250,
		Category: "Dining",
		Account:  "Cash",
		Remark:   "lunch",
		Tags:     []string{"work", "team"},
	}, drafts[0])

	assert.Equal(t, 3, drafts[1].Line)
	assert.Equal(t, "2024-03-02", drafts[1].Date)
	assert.Equal(t, int64(120000), drafts[1].Amount)
	assert.Equal(t, record.TypeIncome, drafts[1].Type)
	assert.Equal(t, []string{}, drafts[1].Tags)
}

func TestParser_SemicolonAndReorderedColumns(t *testing.T) {
	csv := "Account;Amount;Category;Date;Unused\nCash;-1.234,56;Shopping;2024-03-05;x\n"

	drafts, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	assert.Equal(t, int64(123456), drafts[0].Amount)
	assert.Equal(t, record.TypeExpense, drafts[0].Type, "sign decides when there is no type column")
	assert.Equal(t, "Shopping", drafts[0].Category)
}

func TestParser_ChineseHeaders(t *testing.T) {
	csv := "日期,类型,金额,分类,账户,备注\n2024-03-01,支出,35,餐饮美食,现金,午饭\n"

	drafts, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	assert.Equal(t, record.TypeExpense, drafts[0].Type)
	assert.Equal(t, int64(3500), drafts[0].Amount)
	assert.Equal(t, "午饭", drafts[0].Remark)
}

func TestParser_Latin1(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte("date,amount,category,account\n2024-03-01,-3,Café,Cash\n"))
	require.NoError(t, err)

	drafts, err := importer.NewParser().Parse(strings.NewReader(string(latin1)))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Café", drafts[0].Category)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		wantField string
	}{
		{name: "Empty", csv: "", wantField: "file"},
		{name: "MissingColumns", csv: "date,amount\n2024-03-01,1\n", wantField: "header"},
		{name: "BadDate", csv: "date,amount,category,account\n03/01/2024,1,Food,Cash\n", wantField: "line 2"},
		{name: "BadAmount", csv: "date,amount,category,account\n2024-03-01,abc,Food,Cash\n", wantField: "line 2"},
		{name: "ZeroAmount", csv: "date,amount,category,account\n2024-03-01,0.00,Food,Cash\n", wantField: "line 2"},
		{name: "UnknownType", csv: "date,type,amount,category,account\n2024-03-01,refund,1,Food,Cash\n", wantField: "line 2"},
		{name: "MissingAccount", csv: "date,amount,category,account\n2024-03-01,1,Food,\n", wantField: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.NewParser().Parse(strings.NewReader(tt.csv))

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Reasons)
			assert.Equal(t, tt.wantField, verr.Reasons[0].Field)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in       string
		want     int64
		negative bool
	}{
		{in: "12", want: 1200},
		{in: "12.5", want: 1250},
		{in: "12,50", want: 1250},
		{in: "1,234.56", want: 123456},
		{in: "1.234,56", want: 123456},
		{in: "-588,74", want: 58874, negative: true},
		{in: "¥ 99.999", want: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, negative, err := importer.ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.negative, negative)
		})
	}
}
