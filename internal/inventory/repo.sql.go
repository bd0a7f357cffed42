package inventory

const productColumns = `id::text, code, name, description, image_url, quantity,
	sales_price::text, total_value::text,
	stock_in_units, stock_in_value::text, stock_out_units, stock_out_value::text,
	last_movement_kind, last_movement_amount, created_at, updated_at`

const listProducts = `SELECT ` + productColumns + ` FROM products ORDER BY seq`

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

const getProductForUpdate = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

const insertProduct = `INSERT INTO products (
	id, code, name, description, image_url, quantity,
	sales_price, total_value,
	stock_in_units, stock_in_value, stock_out_units, stock_out_value,
	last_movement_kind, last_movement_amount, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7::numeric, $8::numeric,
	$9, $10::numeric, $11, $12::numeric,
	$13, $14, $15, $16
)`

const updateProduct = `UPDATE products SET
	code = $2, name = $3, description = $4, image_url = $5, quantity = $6,
	sales_price = $7::numeric, total_value = $8::numeric,
	stock_in_units = $9, stock_in_value = $10::numeric,
	stock_out_units = $11, stock_out_value = $12::numeric,
	last_movement_kind = $13, last_movement_amount = $14, updated_at = $15
WHERE id = $1`

const deleteProduct = `DELETE FROM products WHERE id = $1`
