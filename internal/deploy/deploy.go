// Package deploy creates the ledger instance and records where it lives.
package deploy

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"hav/internal/ledger"
)

// Title is the name written in front of every logged instance address.
const Title = "HAV"

type Instance struct {
	Address  ledger.Address
	Deployer ledger.Address
	Nonce    uint64
	Ledger   *ledger.Ledger
}

// InstanceAddress derives a deterministic address from the deployer and
// its deployment counter.
func InstanceAddress(deployer ledger.Address, nonce uint64) ledger.Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return ledger.AddressFromHash(deployer.Bytes(), n[:])
}

// Deploy builds a vacant ledger owned by no one and, when log is non-nil,
// appends its address to the deployment log.
func Deploy(deployer ledger.Address, nonce uint64, log *AddressLog, logger logrus.FieldLogger, opts ...ledger.Option) (*Instance, error) {
	inst := &Instance{
		Address:  InstanceAddress(deployer, nonce),
		Deployer: deployer,
		Nonce:    nonce,
	}
	opts = append([]ledger.Option{ledger.WithLogger(logger.WithField("instance", inst.Address.String()))}, opts...)
	inst.Ledger = ledger.New(opts...)

	logger.WithFields(logrus.Fields{
		"deployer": deployer.String(),
		"address":  inst.Address.String(),
		"fee":      inst.Ledger.RequiredFee().String(),
	}).Info("ledger deployed")

	if log != nil {
		if err := log.Append(Title, inst.Address); err != nil {
			return nil, err
		}
	}
	return inst, nil
}
