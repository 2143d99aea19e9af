package inventory

import (
	"fmt"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// FormatDocumentNo arma el número visible del documento: REC-000001, DEL-000042, ...
func FormatDocumentNo(docType entity.DocType, seq int64) string {
	return fmt.Sprintf("%s-%06d", docType.Prefix(), seq)
}
