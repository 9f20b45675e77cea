package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// CatalogService 职位、sector、school、管理机构等基础数据。
type CatalogService struct {
	jobPositionColl    *mgo.Collection
	sectorColl         *mgo.Collection
	schoolColl         *mgo.Collection
	administrationColl *mgo.Collection
	xl                 *xlog.Logger
}

func NewCatalogService(database *mgo.Database, xl *xlog.Logger) *CatalogService {
	if xl == nil {
		xl = xlog.New("hiring-catalog-db")
	}
	return &CatalogService{
		jobPositionColl:    database.C(dao.CollectionJobPosition),
		sectorColl:         database.C(dao.CollectionSector),
		schoolColl:         database.C(dao.CollectionSchool),
		administrationColl: database.C(dao.CollectionAdministration),
		xl:                 xl,
	}
}

func (c *CatalogService) findOne(xl *xlog.Logger, coll *mgo.Collection, id string, result interface{}) error {
	if xl == nil {
		xl = c.xl
	}
	err := coll.FindId(id).One(result)
	if err != nil && err != mgo.ErrNotFound {
		xl.Errorf("failed to get %s %s, error %v", coll.Name, id, err)
	}
	return mapErr(err)
}

func (c *CatalogService) GetJobPosition(xl *xlog.Logger, id string) (*model.JobPositionDo, error) {
	jobPosition := model.JobPositionDo{}
	if err := c.findOne(xl, c.jobPositionColl, id, &jobPosition); err != nil {
		return nil, err
	}
	return &jobPosition, nil
}

func (c *CatalogService) CreateJobPosition(xl *xlog.Logger, jobPosition *model.JobPositionDo) error {
	if xl == nil {
		xl = c.xl
	}
	if jobPosition.ID == "" {
		jobPosition.ID = bson.NewObjectId().Hex()
	}
	if jobPosition.CreatedAt.IsZero() {
		jobPosition.CreatedAt = time.Now()
	}
	err := c.jobPositionColl.Insert(jobPosition)
	if err != nil {
		xl.Errorf("failed to insert job position %s, error %v", jobPosition.Title, err)
		return mapErr(err)
	}
	return nil
}

func (c *CatalogService) GetSector(xl *xlog.Logger, id string) (*model.SectorDo, error) {
	sector := model.SectorDo{}
	if err := c.findOne(xl, c.sectorColl, id, &sector); err != nil {
		return nil, err
	}
	return &sector, nil
}

func (c *CatalogService) GetSchool(xl *xlog.Logger, id string) (*model.SchoolDo, error) {
	school := model.SchoolDo{}
	if err := c.findOne(xl, c.schoolColl, id, &school); err != nil {
		return nil, err
	}
	return &school, nil
}

func (c *CatalogService) ListSectors(xl *xlog.Logger, jobPositionID string) ([]model.SectorDo, error) {
	if xl == nil {
		xl = c.xl
	}
	results := make([]model.SectorDo, 0)
	err := c.sectorColl.Find(bson.M{"jobPositionIds": jobPositionID}).Sort("_id").All(&results)
	if err != nil {
		xl.Errorf("failed to list sectors of job position %s, error %v", jobPositionID, err)
		return nil, err
	}
	return results, nil
}

func (c *CatalogService) ListSchools(xl *xlog.Logger, jobPositionID string, sectorID string) ([]model.SchoolDo, error) {
	if xl == nil {
		xl = c.xl
	}
	results := make([]model.SchoolDo, 0)
	err := c.schoolColl.Find(bson.M{"jobPositionIds": jobPositionID, "sectorId": sectorID}).Sort("_id").All(&results)
	if err != nil {
		xl.Errorf("failed to list schools of sector %s, error %v", sectorID, err)
		return nil, err
	}
	return results, nil
}

func (c *CatalogService) GetAdministration(xl *xlog.Logger, id string) (*model.AdministrationDo, error) {
	administration := model.AdministrationDo{}
	if err := c.findOne(xl, c.administrationColl, id, &administration); err != nil {
		return nil, err
	}
	return &administration, nil
}
