package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func sampleRecord() *model.FileRecord {
	return &model.FileRecord{
		FileID:           "f-1",
		OwnerAddress:     "0xaa",
		ReceiverAddress:  "0xbb",
		IsPublic:         false,
		AccessType:       model.AccessPrivate,
		AllowedRoles:     []string{},
		ContentHash:      "abc123",
		BlobLocation:     "f-1.enc",
		OriginalFilename: "doc.pdf",
		FileSize:         42,
		MimeType:         "application/pdf",
		UploadedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func fileRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"file_id", "owner_address", "receiver_address", "is_public", "access_type", "allowed_roles",
		"content_hash", "image_hash", "anchor_tx_hash", "blob_location",
		"original_filename", "file_size", "mime_type", "label", "document_type", "description", "uploaded_at",
	})
}

func addFileRow(rows *pgxmock.Rows, rec *model.FileRecord) *pgxmock.Rows {
	return rows.AddRow(
		rec.FileID, rec.OwnerAddress, rec.ReceiverAddress, rec.IsPublic,
		string(rec.AccessType), rec.AllowedRoles,
		rec.ContentHash, rec.ImageHash, rec.AnchorTxHash, rec.BlobLocation,
		rec.OriginalFilename, rec.FileSize, rec.MimeType, rec.Label,
		rec.DocumentType, rec.Description, rec.UploadedAt,
	)
}

func TestLedgerRepo_Upsert_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	rec := sampleRecord()
	mock.ExpectExec(`INSERT INTO files`).
		WithArgs(rec.FileID, rec.OwnerAddress, rec.ReceiverAddress, rec.IsPublic,
			string(rec.AccessType), rec.AllowedRoles,
			rec.ContentHash, rec.ImageHash, rec.AnchorTxHash, rec.BlobLocation,
			rec.OriginalFilename, rec.FileSize, rec.MimeType, rec.Label,
			rec.DocumentType, rec.Description, rec.UploadedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	rec := sampleRecord()
	mock.ExpectQuery(`SELECT (.+) FROM files WHERE file_id=\$1`).
		WithArgs("f-1").
		WillReturnRows(addFileRow(fileRows(), rec))

	got, err := r.Get(context.Background(), "f-1")
	require.NoError(t, err)
	require.Equal(t, rec.OwnerAddress, got.OwnerAddress)
	require.Equal(t, model.AccessPrivate, got.AccessType)
	require.Equal(t, rec.UploadedAt, got.UploadedAt)
}

func TestLedgerRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM files WHERE file_id=\$1`).
		WithArgs("missing").
		WillReturnRows(fileRows())

	_, err := r.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLedgerRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	mock.ExpectExec(`DELETE FROM files WHERE file_id=\$1`).
		WithArgs("f-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), "f-1"))

	mock.ExpectExec(`DELETE FROM files WHERE file_id=\$1`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), "gone"), errs.ErrNotFound)
}

func TestLedgerRepo_SetAnchorTx(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	mock.ExpectExec(`UPDATE files SET anchor_tx_hash=\$2 WHERE file_id=\$1`).
		WithArgs("f-1", "0xtx").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetAnchorTx(context.Background(), "f-1", "0xtx"))

	mock.ExpectExec(`UPDATE files SET anchor_tx_hash=\$2 WHERE file_id=\$1`).
		WithArgs("gone", "0xtx").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetAnchorTx(context.Background(), "gone", "0xtx"), errs.ErrNotFound)
}

func TestLedgerRepo_ListByUser(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	a := sampleRecord()
	b := sampleRecord()
	b.FileID = "f-2"
	mock.ExpectQuery(`WHERE owner_address=\$1 OR receiver_address=\$1`).
		WithArgs("0xaa").
		WillReturnRows(addFileRow(addFileRow(fileRows(), a), b))

	got, err := r.ListByUser(context.Background(), "0xaa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "f-2", got[1].FileID)
}

func TestLedgerRepo_ListAccessible_RolesNeverNil(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	mock.ExpectQuery(`allowed_roles && \$2`).
		WithArgs("0xaa", []string{}).
		WillReturnRows(fileRows())

	got, err := r.ListAccessible(context.Background(), "0xaa", nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListPublic_ByOwnerAndAll(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	pub := sampleRecord()
	pub.AccessType = model.AccessPublic
	pub.IsPublic = true

	mock.ExpectQuery(`WHERE owner_address=\$1`).
		WithArgs("0xaa").
		WillReturnRows(addFileRow(fileRows(), pub))
	got, err := r.ListPublic(context.Background(), "0xaa")
	require.NoError(t, err)
	require.Len(t, got, 1)

	mock.ExpectQuery(`WHERE access_type='public'`).
		WillReturnRows(addFileRow(fileRows(), pub))
	got, err = r.ListPublic(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLedgerRepo_Get_QueryError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewLedgerRepo(db)

	boom := errors.New("boom")
	mock.ExpectQuery(`SELECT (.+) FROM files WHERE file_id=\$1`).
		WithArgs("f-1").
		WillReturnError(boom)

	_, err := r.Get(context.Background(), "f-1")
	require.ErrorIs(t, err, boom)
}
