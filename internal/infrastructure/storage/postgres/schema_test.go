package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DeclaresRepositoryTables(t *testing.T) {
	ddl := Schema()
	for _, table := range []string{
		"doc_goods_receipts", "doc_goods_receipt_items",
		"reg_stock_details", "reg_stock_balances",
		"sys_sequences", "sys_outbox", "sys_outbox_dlq", "sys_audit",
		"purchase_orders", "purchase_order_lines", "stock_transfers",
	} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	assert.True(t, strings.Contains(ddl, "CONSTRAINT doc_goods_receipts_number_key UNIQUE (number)"))
	assert.Contains(t, ddl, "REFERENCES reg_stock_details (id) ON DELETE SET NULL")
}
