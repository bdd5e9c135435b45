package mapping

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/units"
)

func (e *Engine) applyCertificate(ctx context.Context, s store.Store, env *events.Envelope) error {
	switch env.Name {
	case events.CertificateMinted:
		return e.certificateMinted(ctx, s, env)
	case events.CourseAddedToCertificate:
		return e.courseAddedToCertificate(ctx, s, env)
	case events.CertificateUpdated:
		return e.certificateUpdated(ctx, s, env)
	case events.CertificateRevoked:
		return e.certificateRevoked(ctx, s, env)
	case events.CertificatePaymentRecorded:
		return e.certificatePaymentRecorded(ctx, s, env)
	default:
		return e.skipUnknown(env)
	}
}

func (e *Engine) certificateMinted(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CertificateMintedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	owner := events.NormalizeAddress(p.Owner)

	if existing, err := s.Certificate(ctx, p.CertificateID); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	cert := store.NewCertificate(p.CertificateID, owner, anchor(env))
	cert.MetadataURI = p.MetadataURI

	meta, err := e.reader.CertificateMetadata(ctx, p.CertificateID)
	if err != nil {
		if !errors.Is(err, chain.ErrCallFailed) {
			return err
		}
		e.logger.Warn("certificate metadata call failed, using fallbacks",
			zap.String("certificate", p.CertificateID), zap.Error(err))
		e.obs.DependencyFallback("certificate_metadata")
		cert.Name = chain.FallbackCertName
		cert.ImageURI = chain.FallbackCertImage
	} else {
		cert.Name = meta.Name
		cert.ImageURI = meta.ImageURI
	}

	if err := s.SaveCertificate(ctx, cert); err != nil {
		return err
	}

	// One certificate per owner, enforced upstream; recorded here as a 1:1
	// link on the profile.
	profile, err := e.ensureProfile(ctx, s, owner, env)
	if err != nil {
		return err
	}
	profile.CertificateID = &cert.ID
	profile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, profile); err != nil {
		return err
	}

	if err := e.bumpPlatform(ctx, s, env, func(st *models.PlatformStats) {
		st.TotalCertificates++
	}); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, owner, "Certificate", cert.ID,
		fmt.Sprintf("Certificate %s minted for %s", cert.ID, shortAddr(owner)))
}

func (e *Engine) courseAddedToCertificate(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.CourseAddedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}
	student := events.NormalizeAddress(p.Student)

	cert, err := s.Certificate(ctx, p.CertificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		e.skipMissing(env, "Certificate", p.CertificateID)
		return nil
	}

	// This event originates on a different contract stream than the
	// enrollment's creation; cross-stream ordering is not guaranteed. When
	// the dependency is missing, skip without marking the event processed so
	// a later replay creates the junction once the enrollment exists.
	lookup, err := s.StudentCourseEnrollment(ctx, store.StudentCourseKey(student, p.CourseID))
	if err != nil {
		return err
	}
	if lookup == nil {
		e.skipMissing(env, "Enrollment", store.StudentCourseKey(student, p.CourseID))
		return nil
	}
	enrollment, err := s.Enrollment(ctx, lookup.EnrollmentID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		e.skipMissing(env, "Enrollment", lookup.EnrollmentID)
		return nil
	}

	junctionID := store.CertificateCourseKey(cert.ID, p.CourseID)
	if existing, err := s.CertificateCourse(ctx, junctionID); err != nil {
		return err
	} else if existing != nil {
		return e.markProcessed(ctx, s, env)
	}

	price, err := models.ParseAmount(p.PricePaid)
	if err != nil {
		return err
	}

	// The fee tier depends on whether this is the certificate's first course
	// at this processing instant, not on global event order.
	isFirst := cert.TotalCourses == 0
	bps := e.fees.CertificateNextBps
	if isFirst {
		bps = e.fees.CertificateFirstBps
	}
	feeInt, _ := units.Split(&price.Int, bps)
	fee := models.Amount{Int: *feeInt}

	if err := s.SaveCertificateCourse(ctx, &models.CertificateCourse{
		ID:            junctionID,
		CertificateID: cert.ID,
		CourseID:      p.CourseID,
		EnrollmentID:  enrollment.ID,
		Student:       student,
		PricePaid:     price,
		PlatformFee:   fee,
		IsFirstCourse: isFirst,
		AddedAt:       env.Time(),
		TxHash:        env.TxHash,
	}); err != nil {
		return err
	}

	cert.TotalCourses++
	cert.TotalRevenue = cert.TotalRevenue.Add(price)
	cert.PlatformFees = cert.PlatformFees.Add(fee)
	cert.UpdatedAt = env.Time()
	if err := s.SaveCertificate(ctx, cert); err != nil {
		return err
	}

	enrollment.CertificateID = &cert.ID
	enrollment.UpdatedAt = env.Time()
	if err := s.SaveEnrollment(ctx, enrollment); err != nil {
		return err
	}

	profile, err := e.ensureProfile(ctx, s, cert.Owner, env)
	if err != nil {
		return err
	}
	profile.CertificateCourses++
	profile.UpdatedAt = env.Time()
	if err := s.SaveProfile(ctx, profile); err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, student, "CertificateCourse", junctionID,
		fmt.Sprintf("Course %s added to certificate %s", p.CourseID, cert.ID))
}

func (e *Engine) certificateUpdated(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CertificateUpdatedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	cert, err := s.Certificate(ctx, p.CertificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		e.skipMissing(env, "Certificate", p.CertificateID)
		return nil
	}

	cert.MetadataURI = p.MetadataURI
	if meta, err := e.reader.CertificateMetadata(ctx, cert.ID); err == nil {
		cert.Name = meta.Name
		cert.ImageURI = meta.ImageURI
	} else if !errors.Is(err, chain.ErrCallFailed) {
		return err
	} else {
		e.obs.DependencyFallback("certificate_metadata")
	}
	cert.UpdatedAt = env.Time()
	if err := s.SaveCertificate(ctx, cert); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, cert.Owner, "Certificate", cert.ID,
		fmt.Sprintf("Certificate %s metadata refreshed", cert.ID))
}

func (e *Engine) certificateRevoked(ctx context.Context, s store.Store, env *events.Envelope) error {
	var p events.CertificateRevokedPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	cert, err := s.Certificate(ctx, p.CertificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		e.skipMissing(env, "Certificate", p.CertificateID)
		return nil
	}
	if cert.IsRevoked {
		return nil
	}

	cert.IsRevoked = true
	cert.UpdatedAt = env.Time()
	if err := s.SaveCertificate(ctx, cert); err != nil {
		return err
	}

	return e.recordActivity(ctx, s, env, cert.Owner, "Certificate", cert.ID,
		fmt.Sprintf("Certificate %s revoked", cert.ID))
}

func (e *Engine) certificatePaymentRecorded(ctx context.Context, s store.Store, env *events.Envelope) error {
	if done, err := e.guarded(ctx, s, env); err != nil || done {
		return err
	}

	var p events.CertificatePaymentPayload
	if err := events.DecodePayload(env, &p); err != nil {
		return err
	}

	cert, err := s.Certificate(ctx, p.CertificateID)
	if err != nil {
		return err
	}
	if cert == nil {
		e.skipMissing(env, "Certificate", p.CertificateID)
		return nil
	}

	amount, err := models.ParseAmount(p.Amount)
	if err != nil {
		return err
	}

	// Audit-field update only; the financial aggregates were settled when the
	// course was added.
	at := env.Time()
	cert.LastPaymentAt = &at
	cert.UpdatedAt = at
	if err := s.SaveCertificate(ctx, cert); err != nil {
		return err
	}

	if err := e.markProcessed(ctx, s, env); err != nil {
		return err
	}
	return e.recordActivity(ctx, s, env, cert.Owner, "Certificate", cert.ID,
		fmt.Sprintf("Payment of %s recorded on certificate %s", units.ToDecimal(&amount.Int), cert.ID))
}
