package config

type WorkerKeyStruct struct {
	PersistProctoringQueue string
	BankRefillQueue        string
}

var WorkerKey = &WorkerKeyStruct{
	PersistProctoringQueue: "persist_proctoring_queue",
	BankRefillQueue:        "bank_refill_queue",
}
