package testhelpers

import (
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/repository/sqlstore"
)

// NewMetadataRepositoryForTest creates a metadata repository over the test database
func (tdb *TestDB) NewMetadataRepositoryForTest() repository.MetadataRepository {
	return sqlstore.NewMetadataRepository(tdb.DB)
}
