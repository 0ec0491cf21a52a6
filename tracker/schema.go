package tracker

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// one row per redeem request, requestId == keccak256(encrypted claim)
	redeemRequestTable = `CREATE TABLE IF NOT EXISTS redeemRequest (
		requestId CHAR(64) PRIMARY KEY NOT NULL,
		status VARCHAR(10) NOT NULL,
		txHash CHAR(64),
		detail TEXT,
		updatedAt BIGINT NOT NULL,
		CONSTRAINT chk_status CHECK (status IN ('processing', 'sent', 'fail')),
		CONSTRAINT chk_requestId CHECK (requestId != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_txHash CHECK (status != 'sent' OR (txHash IS NOT NULL AND txHash != '` + strZeroBytes32 + `'))
	);`
)
