package table

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/crochee/jobflow/pkg/json"
)

const (
	DefaultTransverseStringLength = 64
	DefaultPortraitStringLength   = 128
)

// RenderAsTable 打印数据为ASCII表格, 支持 map[string]interface{} 与 []map[string]interface{}
func RenderAsTable(w io.Writer, i interface{}, fields []string) error {
	switch x := i.(type) {
	case map[string]interface{}:
		renderShowTable(w, x, fields)
	case []map[string]interface{}:
		renderListTable(w, x, fields)
	default:
		return fmt.Errorf("unable to print %T as table", i)
	}
	return nil
}

// renderListTable fields用于控制需要打印的列及列从左到右的显示顺序
func renderListTable(w io.Writer, data []map[string]interface{}, fields []string) {
	header := make(table.Row, len(fields))
	for i, f := range fields {
		header[i] = f
	}
	rows := make([]table.Row, len(data))
	for i, d := range data {
		row := make(table.Row, len(fields))
		for k, v := range d {
			index := indexOf(fields, k)
			if index == -1 {
				continue
			}
			row[index] = text.WrapHard(toString(v), DefaultTransverseStringLength)
		}
		rows[i] = row
	}
	render(w, header, rows)
}

// renderShowTable field用于控制需要打印的字段及字段从上到下出现的顺序
func renderShowTable(w io.Writer, data map[string]interface{}, fields []string) {
	rows := make([]table.Row, 0, len(fields))
	for _, f := range fields {
		v, ok := data[f]
		if !ok {
			continue
		}
		rows = append(rows, table.Row{f, text.WrapHard(toString(v), DefaultPortraitStringLength)})
	}
	render(w, table.Row{"Field", "Value"}, rows)
}

func render(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

func indexOf(list []string, target string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

func toString(d interface{}) string {
	switch v := d.(type) {
	case nil:
		return ""
	case bool:
		return fmt.Sprintf("%t", v)
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int, int64:
		return fmt.Sprintf("%d", v)
	default:
		j, _ := json.Marshal(d)
		return string(j)
	}
}
