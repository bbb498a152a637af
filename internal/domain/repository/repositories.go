package repository

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Items     ItemRepository
	Lots      StockLotRepository
	Movements StockMovementRepository
	Orders    SalesOrderRepository
	Counts    PhysicalCountRepository
}
