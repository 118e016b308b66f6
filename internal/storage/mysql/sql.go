package mysql

import (
	"fmt"
	"strings"
)

// Every column is nullable text; values arrive untyped from the API.
const createReviewsSQL = "CREATE TABLE IF NOT EXISTS `%s` (\n" +
	"  id                  BIGINT AUTO_INCREMENT PRIMARY KEY,\n" +
	"  app_name            TEXT NULL,\n" +
	"  platform            TEXT NULL,\n" +
	"  device_manufacturer TEXT NULL,\n" +
	"  device_model        TEXT NULL,\n" +
	"  review_polarity     TEXT NULL,\n" +
	"  review_tags         TEXT NULL,\n" +
	"  review_score        TEXT NULL,\n" +
	"  review_text         MEDIUMTEXT NULL,\n" +
	"  review_author       TEXT NULL,\n" +
	"  review_time         TEXT NULL,\n" +
	"  response_time       TEXT NULL,\n" +
	"  response_text       MEDIUMTEXT NULL,\n" +
	"  response_author     TEXT NULL\n" +
	") DEFAULT CHARSET = utf8mb4"

const deleteReviewsSQL = "DELETE FROM `%s`"

func insertReviewsPrefix(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO `%s`\n  (%s)\nVALUES ", table, strings.Join(columns, ", "))
}
